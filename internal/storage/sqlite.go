// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcp-nutrition-plan/internal/models"
)

var ErrRunNotFound = errors.New("plan run not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS clients (
        id TEXT PRIMARY KEY,
        protein REAL NOT NULL,
        fats REAL NOT NULL,
        carbs REAL NOT NULL,
        meals INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_slots (
        position INTEGER PRIMARY KEY,
        client TEXT NOT NULL,
        day TEXT NOT NULL,
        meal_name TEXT NOT NULL,
        snack INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS ingredients (
        position INTEGER PRIMARY KEY,
        meal_name TEXT NOT NULL,
        name TEXT NOT NULL,
        protein REAL NOT NULL,
        fats REAL NOT NULL,
        carbs REAL NOT NULL,
        units TEXT NOT NULL,
        quantity REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS plan_runs (
        id TEXT PRIMARY KEY,
        created_at TEXT NOT NULL,
        lines INTEGER NOT NULL,
        meals INTEGER NOT NULL,
        unsolved_meals INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS plan_lines (
        run_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        client TEXT NOT NULL,
        client_protein REAL NOT NULL,
        client_fats REAL NOT NULL,
        client_carbs REAL NOT NULL,
        client_meals INTEGER NOT NULL,
        day TEXT NOT NULL,
        meal_name TEXT NOT NULL,
        ingredient TEXT NOT NULL,
        i_protein REAL NOT NULL,
        i_fats REAL NOT NULL,
        i_carbs REAL NOT NULL,
        units TEXT NOT NULL,
        quantity REAL NOT NULL,
        quantity_change REAL,
        quantity_final REAL,
        t_protein REAL,
        t_fats REAL,
        t_carbs REAL,
        t_calories REAL,
        PRIMARY KEY (run_id, position),
        FOREIGN KEY (run_id) REFERENCES plan_runs(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_plan_runs_created_at ON plan_runs(created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// ReplaceInputs swaps the stored input tables for the given ones in a single
// transaction.
func (s *SQLiteStorage) ReplaceInputs(in models.Inputs) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"clients", "meal_slots", "ingredients"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	clientQuery := `
        INSERT INTO clients (id, protein, fats, carbs, meals)
        VALUES (?, ?, ?, ?, ?)
    `
	for _, c := range in.Clients {
		if _, err := tx.Exec(clientQuery, c.ID, c.Protein, c.Fats, c.Carbs, c.Meals); err != nil {
			return fmt.Errorf("failed to insert client %s: %w", c.ID, err)
		}
	}

	slotQuery := `
        INSERT INTO meal_slots (position, client, day, meal_name, snack)
        VALUES (?, ?, ?, ?, ?)
    `
	for i, m := range in.MealSlots {
		if _, err := tx.Exec(slotQuery, i, m.Client, m.Day, m.Name, m.Snack); err != nil {
			return fmt.Errorf("failed to insert meal slot: %w", err)
		}
	}

	ingredientQuery := `
        INSERT INTO ingredients (position, meal_name, name, protein, fats, carbs, units, quantity)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	for i, ing := range in.Ingredients {
		_, err := tx.Exec(ingredientQuery,
			i, ing.MealName, ing.Name, ing.Protein, ing.Fats, ing.Carbs, ing.Units, ing.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}

	return tx.Commit()
}

// LoadInputs returns the stored input tables in the order they were imported.
func (s *SQLiteStorage) LoadInputs() (models.Inputs, error) {
	var in models.Inputs

	rows, err := s.db.Query(`SELECT id, protein, fats, carbs, meals FROM clients ORDER BY rowid`)
	if err != nil {
		return in, fmt.Errorf("failed to query clients: %w", err)
	}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Protein, &c.Fats, &c.Carbs, &c.Meals); err != nil {
			rows.Close()
			return in, fmt.Errorf("failed to scan client: %w", err)
		}
		in.Clients = append(in.Clients, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to read clients: %w", err)
	}

	rows, err = s.db.Query(`SELECT client, day, meal_name, snack FROM meal_slots ORDER BY position`)
	if err != nil {
		return in, fmt.Errorf("failed to query meal slots: %w", err)
	}
	for rows.Next() {
		var m models.MealSlot
		if err := rows.Scan(&m.Client, &m.Day, &m.Name, &m.Snack); err != nil {
			rows.Close()
			return in, fmt.Errorf("failed to scan meal slot: %w", err)
		}
		in.MealSlots = append(in.MealSlots, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to read meal slots: %w", err)
	}

	rows, err = s.db.Query(`
        SELECT meal_name, name, protein, fats, carbs, units, quantity
        FROM ingredients
        ORDER BY position
    `)
	if err != nil {
		return in, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ing models.Ingredient
		err := rows.Scan(&ing.MealName, &ing.Name, &ing.Protein, &ing.Fats, &ing.Carbs, &ing.Units, &ing.Quantity)
		if err != nil {
			return in, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		in.Ingredients = append(in.Ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to read ingredients: %w", err)
	}

	return in, nil
}

// SaveRun stores a run and its lines. An empty run ID is replaced by a new
// UUID and a zero CreatedAt by the current time.
func (s *SQLiteStorage) SaveRun(run *models.PlanRun, lines []models.IngredientLine) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
        INSERT INTO plan_runs (id, created_at, lines, meals, unsolved_meals)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err = tx.Exec(runQuery,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Lines, run.Meals, run.UnsolvedMeals)
	if err != nil {
		return fmt.Errorf("failed to insert plan run: %w", err)
	}

	lineQuery := `
        INSERT INTO plan_lines (
            run_id, position, client, client_protein, client_fats, client_carbs, client_meals,
            day, meal_name, ingredient, i_protein, i_fats, i_carbs, units, quantity,
            quantity_change, quantity_final, t_protein, t_fats, t_carbs, t_calories
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for i, l := range lines {
		_, err = tx.Exec(lineQuery,
			run.ID, i, l.Client, l.ClientProtein, l.ClientFats, l.ClientCarbs, l.ClientMeals,
			l.Day, l.MealName, l.Ingredient, l.IProtein, l.IFats, l.ICarbs, l.Units, l.Quantity,
			nullable(l.QuantityChange), nullable(l.QuantityFinal),
			nullable(l.TProtein), nullable(l.TFats), nullable(l.TCarbs), nullable(l.TCalories))
		if err != nil {
			return fmt.Errorf("failed to insert plan line: %w", err)
		}
	}

	return tx.Commit()
}

// GetRunLines returns the lines of a stored run in their original order.
func (s *SQLiteStorage) GetRunLines(runID string) ([]models.IngredientLine, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM plan_runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	query := `
        SELECT client, client_protein, client_fats, client_carbs, client_meals,
               day, meal_name, ingredient, i_protein, i_fats, i_carbs, units, quantity,
               quantity_change, quantity_final, t_protein, t_fats, t_carbs, t_calories
        FROM plan_lines
        WHERE run_id = ?
        ORDER BY position
    `

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan lines: %w", err)
	}
	defer rows.Close()

	lines := []models.IngredientLine{}
	for rows.Next() {
		var l models.IngredientLine
		var change, final, protein, fats, carbs, calories sql.NullFloat64

		err := rows.Scan(
			&l.Client, &l.ClientProtein, &l.ClientFats, &l.ClientCarbs, &l.ClientMeals,
			&l.Day, &l.MealName, &l.Ingredient, &l.IProtein, &l.IFats, &l.ICarbs, &l.Units, &l.Quantity,
			&change, &final, &protein, &fats, &carbs, &calories)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan line: %w", err)
		}

		l.QuantityChange = pointer(change)
		l.QuantityFinal = pointer(final)
		l.TProtein = pointer(protein)
		l.TFats = pointer(fats)
		l.TCarbs = pointer(carbs)
		l.TCalories = pointer(calories)

		lines = append(lines, l)
	}

	return lines, rows.Err()
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStorage) ListRuns(limit int) ([]models.PlanRun, error) {
	query := `
        SELECT id, created_at, lines, meals, unsolved_meals
        FROM plan_runs
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan runs: %w", err)
	}
	defer rows.Close()

	runs := []models.PlanRun{}
	for rows.Next() {
		var run models.PlanRun
		var createdAtStr string

		if err := rows.Scan(&run.ID, &createdAtStr, &run.Lines, &run.Meals, &run.UnsolvedMeals); err != nil {
			return nil, fmt.Errorf("failed to scan plan run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(timeLayout, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func pointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}
