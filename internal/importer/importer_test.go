package importer

import (
	"bytes"
	"strings"
	"testing"

	"tradeflow/internal/domain"
	"tradeflow/internal/domain/domaintest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadRows_XLSX(t *testing.T) {
	buf := workbook(t, [][]any{
		{"SKU", "Name", "Wholesale", ""},
		{"PISE 1", "Pistachio Cream", 32.5, "ignored"},
		{},
		{"CRM02", " Hazelnut ", nil, nil},
	})

	rows, err := ReadRows("catalog.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"SKU": "PISE 1", "Name": "Pistachio Cream", "Wholesale": "32.5"}, rows[0])
	assert.Equal(t, Row{"SKU": "CRM02", "Name": "Hazelnut"}, rows[1])
}

func TestReadRows_CSVWithBOM(t *testing.T) {
	data := "\ufeffname,type,country\n\"Casa Folino, Srl\",Supplier,Italy\n"
	rows, err := ReadRows("partners.csv", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"name": "Casa Folino, Srl", "type": "Supplier", "country": "Italy"}, rows[0])
}

func TestReadRows_SniffsUnknownExtension(t *testing.T) {
	rows, err := ReadRows("upload.bin", strings.NewReader("sku,name\nA1,Alpha\n"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"sku": "A1", "name": "Alpha"}}, rows)

	buf := workbook(t, [][]any{{"sku"}, {"B2"}})
	rows, err = ReadRows("", buf)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"sku": "B2"}}, rows)
}

func TestReadRows_Errors(t *testing.T) {
	_, err := ReadRows("empty.csv", strings.NewReader(""))
	assert.EqualError(t, err, "input file is empty")

	_, err = ReadRows("header-only.csv", strings.NewReader("sku,name\n"))
	assert.EqualError(t, err, "file has no valid data rows")
}

func TestRowsFromMaps(t *testing.T) {
	rows := RowsFromMaps([]map[string]any{
		{"sku": "PISE 1", "wholesale": 32.5, "active": true, "note": nil, "blank": "  "},
	})
	assert.Equal(t, []Row{{"sku": "PISE 1", "wholesale": "32.5", "active": "true"}}, rows)
}

func TestProducts_Defaults(t *testing.T) {
	im := New()
	products, rowErrors := im.Products([]Row{
		{"SKU": "PISE 1", "Name": "Pistachio", "wholesale": "32.5", "retail": "abc", "Pallet Position": "P-12"},
		{"colour": "green"},
	})
	require.Empty(t, rowErrors)
	require.Len(t, products, 2)

	first := products[0]
	_, err := uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, "PISE 1", first.SKU)
	assert.Equal(t, "Pistachio", first.Name)
	assert.Equal(t, DefaultCategory, first.Category)
	assert.Equal(t, DefaultUnit, first.Unit)
	assert.Equal(t, DefaultConservation, first.Conservation)
	assert.True(t, domaintest.Dec("10").Equal(first.MinStockAlert))
	assert.True(t, domaintest.Dec("1").Equal(first.UnitWeightKg))
	assert.True(t, domaintest.Dec("32.5").Equal(first.WholesalePrice))
	assert.True(t, first.SuggestedRetailPrice.IsZero())
	assert.Equal(t, map[string]string{"pallet_position": "P-12"}, first.Extra)

	second := products[1]
	assert.Equal(t, "SKU-1", second.SKU)
	assert.Equal(t, UnknownProductName, second.Name)
	assert.Equal(t, map[string]string{"colour": "green"}, second.Extra)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProducts_ExplicitValuesWin(t *testing.T) {
	products, rowErrors := New().Products([]Row{{
		"sku": "MA22", "name": "Burrata", "category": "Dairy", "unit": "piece",
		"min_stock_alert": "5", "weight": "1.5", "conservation": "frais",
		"items per case": "15", "srp": "12.50 EUR", "id": "forged",
	}})
	require.Empty(t, rowErrors)
	require.Len(t, products, 1)

	p := products[0]
	assert.NotEqual(t, "forged", p.ID)
	assert.Equal(t, "forged", p.Extra["id"])
	assert.Equal(t, "Dairy", p.Category)
	assert.Equal(t, "piece", p.Unit)
	assert.Equal(t, "frais", p.Conservation)
	assert.Equal(t, 15, p.ItemsPerCase)
	assert.True(t, domaintest.Dec("5").Equal(p.MinStockAlert))
	assert.True(t, domaintest.Dec("1.5").Equal(p.UnitWeightKg))
	assert.True(t, domaintest.Dec("12.50").Equal(p.SuggestedRetailPrice))
}

func TestProducts_RejectedRows(t *testing.T) {
	products, rowErrors := New().Products([]Row{
		{"sku": "OK-1"},
		{"sku": "NEG", "wholesale": "-5"},
		{"sku": "HALF", "items_per_case": "2.5"},
		{"sku": strings.Repeat("X", 65)},
	})

	require.Len(t, products, 1)
	assert.Equal(t, "OK-1", products[0].SKU)

	require.Len(t, rowErrors, 3)
	assert.Equal(t, RowError{Index: 1, Message: "product NEG: wholesale_price cannot be negative"}, rowErrors[0])
	assert.Equal(t, RowError{Index: 2, Field: "items_per_case", Message: "must be an integer"}, rowErrors[1])
	assert.Equal(t, RowError{Index: 3, Field: "sku", Message: "must be at most 64 characters"}, rowErrors[2])
	assert.Equal(t, "row 3: sku: must be at most 64 characters", rowErrors[2].Error())
}

func TestPartners_TypeAndDefaults(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.PartnerType
	}{
		{"Client Grossiste", domain.PartnerClient},
		{"CLIENT", domain.PartnerClient},
		{"Transitaire", domain.PartnerForwarder},
		{"freight forwarder", domain.PartnerForwarder},
		{"wholesaler", domain.PartnerSupplier},
		{"", domain.PartnerSupplier},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, partnerType(tt.raw))
		})
	}

	partners, rowErrors := New().Partners([]Row{
		{"Nom": "Eataly Toronto LP", "Type": "client", "Devise": "cad", "Ville": "Toronto", "Contact": "Gianni"},
		{},
	})
	require.Empty(t, rowErrors)
	require.Len(t, partners, 2)

	assert.Equal(t, "Eataly Toronto LP", partners[0].Name)
	assert.Equal(t, domain.PartnerClient, partners[0].Type)
	assert.Equal(t, "CAD", partners[0].Currency)
	assert.Equal(t, "Toronto", partners[0].City)
	assert.Equal(t, DefaultCountry, partners[0].Country)
	assert.Equal(t, map[string]string{"contact": "Gianni"}, partners[0].Extra)

	assert.Equal(t, UnknownPartnerName, partners[1].Name)
	assert.Equal(t, domain.PartnerSupplier, partners[1].Type)
	assert.Equal(t, DefaultCurrency, partners[1].Currency)
	assert.Nil(t, partners[1].Extra)
}

func TestPartners_InvalidCurrency(t *testing.T) {
	partners, rowErrors := New().Partners([]Row{{"name": "Corilu", "currency": "EURO"}})
	assert.Empty(t, partners)
	assert.Equal(t, []RowError{{Index: 0, Field: "currency", Message: "must be exactly 3 characters"}}, rowErrors)
}

func TestPartners_UnknownCurrencyCode(t *testing.T) {
	partners, rowErrors := New().Partners([]Row{{"name": "Corilu", "currency": "XYZ"}})
	assert.Empty(t, partners)
	assert.Equal(t, []RowError{{Index: 0, Field: "currency", Message: "must be an ISO 4217 currency code"}}, rowErrors)
}

func TestNormalizeHeader_FoldsAccents(t *testing.T) {
	assert.Equal(t, "categorie", normalizeHeader(" Catégorie "))
	assert.Equal(t, "unite", normalizeHeader("UNITÉ"))
	assert.Equal(t, "prix gros", normalizeHeader("prix_gros"))

	products, rowErrors := New().Products([]Row{{"SKU": "OIL-1", "Catégorie": "Huiles", "Unité": "bouteille", "Région": "Puglia"}})
	require.Empty(t, rowErrors)
	require.Len(t, products, 1)
	assert.Equal(t, "Huiles", products[0].Category)
	assert.Equal(t, "bouteille", products[0].Unit)
	assert.Equal(t, map[string]string{"region": "Puglia"}, products[0].Extra)
}

func TestLooseDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"32.5", "32.5"},
		{"1,250.75", "1250.75"},
		{"12.50 EUR", "12.5"},
		{".5", "0.5"},
		{"-3", "-3"},
		{"12,50", "12.5"},
		{"12,5 EUR", "12.5"},
		{"1.234,56", "1234.56"},
		{"1,234,567", "1234567"},
		{"1,2345", "0"},
		{"1,2,3", "0"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		got := looseDecimal(tt.raw)
		assert.True(t, domaintest.Dec(tt.want).Equal(got), "%q: expected %s but got %s", tt.raw, tt.want, got)
	}
}

func TestDecimalOr_AmbiguousCommaFallsBack(t *testing.T) {
	fallback := domaintest.Dec("1.3")
	assert.True(t, fallback.Equal(decimalOr("1,2345", fallback)))
	assert.True(t, fallback.Equal(decimalOr("  ", fallback)))
	assert.True(t, domaintest.Dec("1.45").Equal(decimalOr("1,45", fallback)))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr string
	}{
		{raw: "12", want: 12},
		{raw: "1,200", want: 1200},
		{raw: "3.0", want: 3},
		{raw: "12,00", want: 12},
		{raw: "12,5", wantErr: "must be an integer"},
		{raw: "12 pcs", wantErr: "not a number"},
		{raw: "1,2345", wantErr: "not a number"},
		{raw: "", wantErr: "value is empty"},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.raw)
		if tt.wantErr != "" {
			assert.EqualError(t, err, tt.wantErr, "%q", tt.raw)
			continue
		}
		require.NoError(t, err, "%q", tt.raw)
		assert.Equal(t, tt.want, got, "%q", tt.raw)
	}
}
