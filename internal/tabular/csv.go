// Package tabular reads plan inputs from delimited text and writes finished
// plans to CSV or to an XLSX template.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mcp-nutrition-plan/internal/models"
)

var ErrMissingColumn = errors.New("missing column")

// Input column names.
const (
	ColClient     = "CLIENT"
	ColProtein    = "PROTEIN"
	ColFats       = "FATS"
	ColCarbs      = "CARBS"
	ColMeals      = "MEALS"
	ColDay        = "DAY"
	ColMealName   = "MEAL_NAME"
	ColSnack      = "SNACK"
	ColIngredient = "INGREDIENT"
	ColUnits      = "UNITS"
	ColQuantity   = "QUANTITY"
)

// InputPaths locates the three input tables.
type InputPaths struct {
	Clients     string `yaml:"clients"`
	MealSlots   string `yaml:"meal_slots"`
	Ingredients string `yaml:"ingredients"`
}

// LoadInputs reads all three input tables from disk.
func LoadInputs(paths InputPaths) (models.Inputs, error) {
	var in models.Inputs
	var err error

	if in.Clients, err = readFile(paths.Clients, ReadClients); err != nil {
		return models.Inputs{}, err
	}
	if in.MealSlots, err = readFile(paths.MealSlots, ReadMealSlots); err != nil {
		return models.Inputs{}, err
	}
	if in.Ingredients, err = readFile(paths.Ingredients, ReadIngredients); err != nil {
		return models.Inputs{}, err
	}

	return in, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// ReadClients parses CLIENT, PROTEIN, FATS, CARBS, MEALS rows.
func ReadClients(r io.Reader) ([]models.Client, error) {
	t, err := readTable(r, ColClient, ColProtein, ColFats, ColCarbs, ColMeals)
	if err != nil {
		return nil, err
	}

	clients := make([]models.Client, 0, len(t.rows))
	for i := range t.rows {
		row := t.row(i)
		clients = append(clients, models.Client{
			ID:      row.str(ColClient),
			Protein: row.float(ColProtein),
			Fats:    row.float(ColFats),
			Carbs:   row.float(ColCarbs),
			Meals:   row.int(ColMeals),
		})
		if row.err != nil {
			return nil, row.err
		}
	}
	return clients, nil
}

// ReadMealSlots parses CLIENT, DAY, MEAL_NAME, SNACK rows. SNACK is 1 for a
// snack and anything else for an ordinary meal.
func ReadMealSlots(r io.Reader) ([]models.MealSlot, error) {
	t, err := readTable(r, ColClient, ColDay, ColMealName, ColSnack)
	if err != nil {
		return nil, err
	}

	slots := make([]models.MealSlot, 0, len(t.rows))
	for i := range t.rows {
		row := t.row(i)
		slots = append(slots, models.MealSlot{
			Client: row.str(ColClient),
			Day:    row.str(ColDay),
			Name:   row.str(ColMealName),
			Snack:  row.float(ColSnack) == 1,
		})
		if row.err != nil {
			return nil, row.err
		}
	}
	return slots, nil
}

// ReadIngredients parses MEAL_NAME, INGREDIENT, PROTEIN, FATS, CARBS, UNITS,
// QUANTITY rows.
func ReadIngredients(r io.Reader) ([]models.Ingredient, error) {
	t, err := readTable(r, ColMealName, ColIngredient, ColProtein, ColFats, ColCarbs, ColUnits, ColQuantity)
	if err != nil {
		return nil, err
	}

	ingredients := make([]models.Ingredient, 0, len(t.rows))
	for i := range t.rows {
		row := t.row(i)
		ingredients = append(ingredients, models.Ingredient{
			MealName: row.str(ColMealName),
			Name:     row.str(ColIngredient),
			Protein:  row.float(ColProtein),
			Fats:     row.float(ColFats),
			Carbs:    row.float(ColCarbs),
			Units:    row.str(ColUnits),
			Quantity: row.float(ColQuantity),
		})
		if row.err != nil {
			return nil, row.err
		}
	}
	return ingredients, nil
}

type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t.columns[strings.ToUpper(name)] = i
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingColumn, col)
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		t.rows = append(t.rows, rec)
	}

	return t, nil
}

// row reads typed cells and keeps the first conversion error.
type row struct {
	t   *table
	n   int
	err error
}

func (t *table) row(i int) *row {
	return &row{t: t, n: i}
}

func (r *row) str(col string) string {
	return strings.TrimSpace(r.t.rows[r.n][r.t.columns[col]])
}

func (r *row) float(col string) float64 {
	v := r.str(col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("row %d column %s: invalid number %q", r.n+2, col, v)
	}
	return f
}

func (r *row) int(col string) int {
	v := r.str(col)
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("row %d column %s: invalid integer %q", r.n+2, col, v)
	}
	return n
}

// OutputColumns is the column order of plan output.
var OutputColumns = []string{
	"CLIENT", "PROTEIN", "FATS", "CARBS", "MEALS",
	"DAY", "MEAL_NAME",
	"INGREDIENT", "I_PROTEIN", "I_FATS", "I_CARBS", "UNITS", "QUANTITY",
	"QUANTITY_CHANGES", "QUANTITY_FINAL", "T_PROTEIN", "T_FATS", "T_CARBS", "T_CALORIES",
}

// values returns a line's cells in OutputColumns order; nil marks a null.
func values(l models.IngredientLine) []interface{} {
	cells := []interface{}{
		l.Client, l.ClientProtein, l.ClientFats, l.ClientCarbs, l.ClientMeals,
		l.Day, l.MealName,
		l.Ingredient, l.IProtein, l.IFats, l.ICarbs, l.Units, l.Quantity,
	}
	for _, v := range []*float64{l.QuantityChange, l.QuantityFinal, l.TProtein, l.TFats, l.TCarbs, l.TCalories} {
		if v == nil {
			cells = append(cells, nil)
		} else {
			cells = append(cells, *v)
		}
	}
	return cells
}

// WriteCSV writes the plan with a header row. Nulls become empty fields.
func WriteCSV(w io.Writer, lines []models.IngredientLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rec := make([]string, len(OutputColumns))
	for _, l := range lines {
		for i, v := range values(l) {
			rec[i] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
