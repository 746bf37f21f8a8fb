package importer

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"tradeflow/internal/domain"

	"github.com/Rhymond/go-money"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCategory      = "General"
	DefaultUnit          = "colis"
	DefaultConservation  = "sec"
	DefaultCountry       = "Unknown"
	DefaultCurrency      = "USD"
	UnknownProductName   = "Unknown Product"
	UnknownPartnerName   = "Unknown Partner"
	defaultMinStockAlert = 10
	defaultUnitWeightKg  = 1
	skuFallbackPrefix    = "SKU-"
)

var productAliases = map[string]string{
	"sku":                    "sku",
	"code":                   "sku",
	"item code":              "sku",
	"name":                   "name",
	"product":                "name",
	"product name":           "name",
	"nom":                    "name",
	"description fr":         "description_fr",
	"description":            "description_fr",
	"brand":                  "brand",
	"marque":                 "brand",
	"category":               "category",
	"categorie":              "category",
	"unit":                   "unit",
	"unite":                  "unit",
	"format":                 "format",
	"items per case":         "items_per_case",
	"units per case":         "items_per_case",
	"weight":                 "unit_weight_kg",
	"unit weight kg":         "unit_weight_kg",
	"poids":                  "unit_weight_kg",
	"origin":                 "origin",
	"origine":                "origin",
	"hs code":                "hs_code",
	"conservation":           "conservation",
	"min stock alert":        "min_stock_alert",
	"min stock":              "min_stock_alert",
	"wholesale":              "wholesale_price",
	"wholesale price":        "wholesale_price",
	"prix gros":              "wholesale_price",
	"retail":                 "suggested_retail_price",
	"retail price":           "suggested_retail_price",
	"suggested retail price": "suggested_retail_price",
	"srp":                    "suggested_retail_price",
	"pvc":                    "suggested_retail_price",
}

var partnerAliases = map[string]string{
	"name":        "name",
	"nom":         "name",
	"partner":     "name",
	"company":     "name",
	"type":        "type",
	"address":     "address",
	"adresse":     "address",
	"city":        "city",
	"ville":       "city",
	"postal code": "postal_code",
	"zip":         "postal_code",
	"code postal": "postal_code",
	"country":     "country",
	"pays":        "country",
	"currency":    "currency",
	"devise":      "currency",
}

// RowError explains why one input row was rejected. Index is the zero-based
// position of the row in the import batch.
type RowError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Field, e.Message)
}

type productRecord struct {
	SKU          string `json:"sku" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=255"`
	Category     string `json:"category" validate:"required,max=100"`
	Unit         string `json:"unit" validate:"required,max=32"`
	Conservation string `json:"conservation" validate:"required,max=32"`
	ItemsPerCase int    `json:"items_per_case" validate:"gte=0"`
	HSCode       string `json:"hs_code" validate:"omitempty,max=16"`
}

type partnerRecord struct {
	Name     string `json:"name" validate:"required,max=255"`
	Type     string `json:"type" validate:"oneof=supplier client forwarder"`
	Country  string `json:"country" validate:"required,max=100"`
	Currency string `json:"currency" validate:"required,len=3,currency"`
}

// Importer normalizes loose rows field by field. Known columns are mapped
// onto the record, every other column is kept in Extra, and nothing from
// the input can overwrite the generated id.
type Importer struct {
	validate *validator.Validate
	newID    func() string
}

func New() *Importer {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return money.GetCurrency(fl.Field().String()) != nil
	})
	return &Importer{validate: v, newID: uuid.NewString}
}

// Products normalizes every row. Rows that fail validation are reported and
// left out of the result.
func (im *Importer) Products(rows []Row) ([]domain.Product, []RowError) {
	products := make([]domain.Product, 0, len(rows))
	var rowErrors []RowError

	for idx, raw := range rows {
		fields, extra := splitFields(raw, productAliases)

		product := domain.Product{
			ID:                   im.newID(),
			SKU:                  firstNonEmpty(fields["sku"], skuFallbackPrefix+strconv.Itoa(idx)),
			Name:                 firstNonEmpty(fields["name"], UnknownProductName),
			DescriptionFR:        fields["description_fr"],
			Brand:                fields["brand"],
			Category:             firstNonEmpty(fields["category"], DefaultCategory),
			Unit:                 firstNonEmpty(fields["unit"], DefaultUnit),
			Format:               fields["format"],
			Origin:               fields["origin"],
			HSCode:               fields["hs_code"],
			Conservation:         firstNonEmpty(fields["conservation"], DefaultConservation),
			UnitWeightKg:         decimalOr(fields["unit_weight_kg"], decimal.NewFromInt(defaultUnitWeightKg)),
			MinStockAlert:        decimalOr(fields["min_stock_alert"], decimal.NewFromInt(defaultMinStockAlert)),
			WholesalePrice:       looseDecimal(fields["wholesale_price"]),
			SuggestedRetailPrice: looseDecimal(fields["suggested_retail_price"]),
			Extra:                extra,
		}

		if raw := fields["items_per_case"]; raw != "" {
			value, err := parseInt(raw)
			if err != nil {
				rowErrors = append(rowErrors, RowError{Index: idx, Field: "items_per_case", Message: err.Error()})
				continue
			}
			product.ItemsPerCase = value
		}

		record := productRecord{
			SKU:          product.SKU,
			Name:         product.Name,
			Category:     product.Category,
			Unit:         product.Unit,
			Conservation: product.Conservation,
			ItemsPerCase: product.ItemsPerCase,
			HSCode:       product.HSCode,
		}
		if errs := im.check(idx, record); len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		if err := product.Validate(); err != nil {
			rowErrors = append(rowErrors, RowError{Index: idx, Message: err.Error()})
			continue
		}
		products = append(products, product)
	}
	return products, rowErrors
}

// Partners normalizes every row. The partner type is client when the input
// mentions a client, forwarder for forwarder or transitaire, supplier
// otherwise.
func (im *Importer) Partners(rows []Row) ([]domain.Partner, []RowError) {
	partners := make([]domain.Partner, 0, len(rows))
	var rowErrors []RowError

	for idx, raw := range rows {
		fields, extra := splitFields(raw, partnerAliases)

		partner := domain.Partner{
			ID:         im.newID(),
			Name:       firstNonEmpty(fields["name"], UnknownPartnerName),
			Type:       partnerType(fields["type"]),
			Address:    fields["address"],
			City:       fields["city"],
			PostalCode: fields["postal_code"],
			Country:    firstNonEmpty(fields["country"], DefaultCountry),
			Currency:   strings.ToUpper(firstNonEmpty(fields["currency"], DefaultCurrency)),
			Extra:      extra,
		}

		record := partnerRecord{
			Name:     partner.Name,
			Type:     string(partner.Type),
			Country:  partner.Country,
			Currency: partner.Currency,
		}
		if errs := im.check(idx, record); len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		partners = append(partners, partner)
	}
	return partners, rowErrors
}

func (im *Importer) check(idx int, record any) []RowError {
	err := im.validate.Struct(record)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []RowError{{Index: idx, Message: err.Error()}}
	}
	out := make([]RowError, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, RowError{Index: idx, Field: e.Field(), Message: validationMessage(e)})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "len":
		return "must be exactly " + e.Param() + " characters"
	case "currency":
		return "must be an ISO 4217 currency code"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}

// splitFields maps known headers onto canonical field names. When two
// headers alias the same field the one sorting first wins. Unknown columns are
// returned as extras keyed by their snake_cased header.
func splitFields(raw Row, aliases map[string]string) (map[string]string, map[string]string) {
	fields := make(map[string]string, len(raw))
	var extra map[string]string

	for _, key := range slices.Sorted(maps.Keys(raw)) {
		value := strings.TrimSpace(raw[key])
		normalized := normalizeHeader(key)
		if normalized == "" {
			continue
		}
		if canonical, ok := aliases[normalized]; ok {
			if _, seen := fields[canonical]; !seen && value != "" {
				fields[canonical] = value
			}
			continue
		}
		if value == "" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[strings.ReplaceAll(normalized, " ", "_")] = value
	}
	return fields, extra
}

func partnerType(raw string) domain.PartnerType {
	value := strings.ToLower(raw)
	switch {
	case strings.Contains(value, "client"):
		return domain.PartnerClient
	case strings.Contains(value, "forwarder"), strings.Contains(value, "transitaire"):
		return domain.PartnerForwarder
	default:
		return domain.PartnerSupplier
	}
}

func firstNonEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	numberToken   = regexp.MustCompile(`^[+-]?[\d.,]*\d`)

	// 1,234,567.89
	commaThousands = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	// 1.234.567,89
	dotThousands = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+,\d{1,2}$`)
	// 12,5 or 12,50
	commaDecimal = regexp.MustCompile(`^[+-]?\d*,\d{1,2}$`)
)

// numericText returns the leading number of value rewritten with a point as
// the decimal separator, and how many bytes of value it spans. A comma is a
// thousands separator only in groups of three and a decimal comma only with
// one or two digits after it; any other comma yields no number.
func numericText(value string) (string, int) {
	token := numberToken.FindString(value)
	if !strings.Contains(token, ",") {
		match := leadingNumber.FindString(value)
		return match, len(match)
	}
	switch {
	case commaThousands.MatchString(token):
		return strings.ReplaceAll(token, ",", ""), len(token)
	case dotThousands.MatchString(token):
		return strings.Replace(strings.ReplaceAll(token, ".", ""), ",", ".", 1), len(token)
	case commaDecimal.MatchString(token):
		return strings.Replace(token, ",", ".", 1), len(token)
	}
	return "", 0
}

// looseDecimal reads the leading number of raw and ignores what follows, so
// "12.50 EUR" is 12.50. Anything without a readable leading number is zero.
func looseDecimal(raw string) decimal.Decimal {
	text, n := numericText(strings.TrimSpace(raw))
	if n == 0 {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

func decimalOr(raw string, fallback decimal.Decimal) decimal.Decimal {
	text, n := numericText(strings.TrimSpace(raw))
	if n == 0 {
		return fallback
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}

	text, n := numericText(value)
	if n == 0 || n != len(value) {
		return 0, fmt.Errorf("not a number")
	}
	asFloat, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(asFloat), nil
}
