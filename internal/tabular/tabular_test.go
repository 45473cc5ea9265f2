package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mcp-nutrition-plan/internal/models"
)

func TestReadClients(t *testing.T) {
	data := "\ufeffCLIENT,MEALS,PROTEIN,FATS,CARBS\n" +
		"jane, 5,150,60,300\n" +
		"bob,4,120.5,50,250\n"

	clients, err := ReadClients(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, clients, 2)

	assert.Equal(t, models.Client{ID: "jane", Protein: 150, Fats: 60, Carbs: 300, Meals: 5}, clients[0])
	assert.Equal(t, 120.5, clients[1].Protein)
}

func TestReadMealSlots(t *testing.T) {
	data := "CLIENT,DAY,MEAL_NAME,SNACK\n" +
		"jane,1,Oats,0\n" +
		"jane,1,Protein Bar,1\n"

	slots, err := ReadMealSlots(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []models.MealSlot{
		{Client: "jane", Day: "1", Name: "Oats"},
		{Client: "jane", Day: "1", Name: "Protein Bar", Snack: true},
	}, slots)
}

func TestReadIngredients(t *testing.T) {
	data := "MEAL_NAME,INGREDIENT,PROTEIN,FATS,CARBS,UNITS,QUANTITY\n" +
		"Oats,rolled oats,13,7,66,100g,0.5\n" +
		"Oats,\"milk, skim\",3.4,0.1,5,100ml,\n"

	ingredients, err := ReadIngredients(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, ingredients, 2)

	assert.Equal(t, 0.5, ingredients[0].Quantity)
	assert.Equal(t, "milk, skim", ingredients[1].Name)
	assert.Equal(t, 0.0, ingredients[1].Quantity)
}

func TestReadErrors(t *testing.T) {
	_, err := ReadClients(strings.NewReader("CLIENT,PROTEIN,FATS,CARBS\njane,1,2,3\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "MEALS")

	_, err = ReadClients(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ReadClients(strings.NewReader("CLIENT,PROTEIN,FATS,CARBS,MEALS\njane,lots,2,3,5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 column PROTEIN")

	_, err = ReadClients(strings.NewReader("CLIENT,PROTEIN,FATS,CARBS,MEALS\njane,1,2,3,4.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid integer")
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	paths := InputPaths{
		Clients:     filepath.Join(dir, "clients.csv"),
		MealSlots:   filepath.Join(dir, "client_meals.csv"),
		Ingredients: filepath.Join(dir, "meal_ingredients.csv"),
	}
	require.NoError(t, os.WriteFile(paths.Clients, []byte("CLIENT,PROTEIN,FATS,CARBS,MEALS\njane,150,60,300,5\n"), 0644))
	require.NoError(t, os.WriteFile(paths.MealSlots, []byte("CLIENT,DAY,MEAL_NAME,SNACK\njane,1,Oats,0\n"), 0644))
	require.NoError(t, os.WriteFile(paths.Ingredients, []byte("MEAL_NAME,INGREDIENT,PROTEIN,FATS,CARBS,UNITS,QUANTITY\nOats,rolled oats,13,7,66,100g,1\n"), 0644))

	in, err := LoadInputs(paths)
	require.NoError(t, err)
	assert.Len(t, in.Clients, 1)
	assert.Len(t, in.MealSlots, 1)
	assert.Len(t, in.Ingredients, 1)

	paths.MealSlots = filepath.Join(dir, "missing.csv")
	_, err = LoadInputs(paths)
	assert.Error(t, err)
}

func planLines() []models.IngredientLine {
	client := models.Client{ID: "jane", Protein: 150, Fats: 60, Carbs: 300, Meals: 5}
	solved := models.NewIngredientLine(client, "1", "1 - Oats", models.Ingredient{Name: "rolled oats", Protein: 13, Fats: 7, Carbs: 66, Units: "100g", Quantity: 1})
	solved.QuantityChange = models.Float(0.3)
	solved.QuantityFinal = models.Float(1.25)
	solved.TProtein = models.Float(16.25)
	solved.TFats = models.Float(8.75)
	solved.TCarbs = models.Float(82.5)
	solved.TCalories = models.Float(473.75)

	unsolved := models.NewIngredientLine(client, "1", "2 - Lunch", models.Ingredient{Name: "rice", Protein: 2.7, Fats: 0.3, Carbs: 28, Units: "100g", Quantity: 2})

	return []models.IngredientLine{solved, unsolved}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, planLines()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, OutputColumns, records[0])
	assert.Equal(t, []string{
		"jane", "150", "60", "300", "5", "1", "1 - Oats",
		"rolled oats", "13", "7", "66", "100g", "1",
		"0.3", "1.25", "16.25", "8.75", "82.5", "473.75",
	}, records[1])
	assert.Equal(t, []string{"", "", "", "", "", ""}, records[2][13:])
}

func TestWriteFileReplacesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrition-plans.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,output\n"), 0644))

	require.NoError(t, WriteFile(path, "", planLines()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.True(t, strings.HasPrefix(string(data), "CLIENT,PROTEIN"))
}

func TestWriteXLSXWithoutTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrition-plans.xlsx")

	require.NoError(t, WriteFile(path, "", planLines()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, OutputColumns, rows[0])
	assert.Equal(t, "1 - Oats", rows[1][6])
	assert.Equal(t, "1.25", rows[1][14])
	assert.Equal(t, "473.75", rows[1][18])

	// Null outputs leave the trailing cells empty.
	assert.Len(t, rows[2], 13)
	assert.Equal(t, "rice", rows[2][7])
}

func TestWriteXLSXWithTemplate(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.xlsx")

	tpl := excelize.NewFile()
	_, err := tpl.NewSheet(DataSheet)
	require.NoError(t, err)
	require.NoError(t, tpl.SetCellValue(DataSheet, "A1", "Client"))
	require.NoError(t, tpl.SetCellValue("Sheet1", "A1", "summary"))
	require.NoError(t, tpl.SaveAs(templatePath))
	require.NoError(t, tpl.Close())

	path := filepath.Join(dir, "out.xlsx")
	require.NoError(t, WriteXLSX(path, templatePath, planLines()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Client"}, rows[0])
	assert.Equal(t, "jane", rows[1][0])

	summary, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "summary", summary)
}

func TestWriteXLSXClearsTemplateCellsForUnsolvedMeals(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.xlsx")

	tpl := excelize.NewFile()
	_, err := tpl.NewSheet(DataSheet)
	require.NoError(t, err)
	filler := make([]interface{}, len(OutputColumns))
	for i := range filler {
		filler[i] = 99
	}
	require.NoError(t, tpl.SetSheetRow(DataSheet, "A2", &filler))
	require.NoError(t, tpl.SaveAs(templatePath))
	require.NoError(t, tpl.Close())

	path := filepath.Join(dir, "out.xlsx")
	require.NoError(t, WriteXLSX(path, templatePath, planLines()[1:]))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for _, cell := range []string{"N2", "O2", "P2", "Q2", "R2", "S2"} {
		v, err := f.GetCellValue(DataSheet, cell)
		require.NoError(t, err)
		assert.Empty(t, v, cell)
	}
	ingredient, err := f.GetCellValue(DataSheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "rice", ingredient)
}

func TestWriteXLSXTemplateWithoutDataSheet(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.xlsx")

	tpl := excelize.NewFile()
	require.NoError(t, tpl.SaveAs(templatePath))
	require.NoError(t, tpl.Close())

	err := WriteXLSX(filepath.Join(dir, "out.xlsx"), templatePath, planLines())
	assert.Error(t, err)
}
