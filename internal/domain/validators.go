package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Price bounds. Exponent notation is expanded when a price is rendered,
// so the digit counts are limited before anything is formatted.
const (
	maxPriceTextLen       = 64
	maxPriceIntegerDigits = 18
	maxPriceScale         = 18
)

// validate is safe for concurrent use and caches rule parsing.
var validate = validator.New()

// ValidateRequiredFields fails for the first field absent from data.
func ValidateRequiredFields(data Attributes, fields ...string) error {
	for _, field := range fields {
		if !data.Has(field) {
			return perrors.Validation("Missing required field: " + field)
		}
	}
	return nil
}

// ValidatePrice parses raw as an exact decimal that must be strictly positive.
func ValidatePrice(raw any) (decimal.Decimal, error) {
	text, ok := numericText(raw)
	if !ok {
		return decimal.Zero, perrors.Validation("Invalid price format")
	}
	text = strings.TrimSpace(text)
	if len(text) > maxPriceTextLen {
		return decimal.Zero, perrors.Validation("Invalid price format")
	}
	price, err := decimal.NewFromString(text)
	if err != nil || !priceInBounds(price) {
		return decimal.Zero, perrors.Validation("Invalid price format")
	}
	if !price.IsPositive() {
		return decimal.Zero, perrors.Validation("Price must be greater than 0")
	}
	return price, nil
}

func priceInBounds(price decimal.Decimal) bool {
	exp := int(price.Exponent())
	return -exp <= maxPriceScale && price.NumDigits()+exp <= maxPriceIntegerDigits
}

// FormatPrice renders a price keeping the scale it was written with ("9.990" stays "9.990").
func FormatPrice(price decimal.Decimal) string {
	if exp := price.Exponent(); exp < 0 {
		return price.StringFixed(-exp)
	}
	return price.String()
}

// ValidateQuantity parses raw as a non-negative integer.
func ValidateQuantity(raw any) (int64, error) {
	return nonNegativeInt(raw, "Invalid quantity format", "Quantity cannot be negative")
}

// ValidateMinimumStockLevel parses raw as a non-negative integer.
func ValidateMinimumStockLevel(raw any) (int64, error) {
	return nonNegativeInt(raw, "Invalid minimum stock level format", "Minimum stock level cannot be negative")
}

// ValidateProductID parses a product id taken from a request. nil means the id was not supplied.
func ValidateProductID(raw *string) (int64, error) {
	if raw == nil {
		return 0, perrors.Validation("Product ID is required")
	}
	id, ok := parseInteger(*raw)
	if !ok {
		return 0, perrors.Validation("Invalid product ID")
	}
	return id, nil
}

// ValidatePagination normalizes page and page size, applying defaults for nil inputs.
func ValidatePagination(rawPage, rawPageSize *string) (page, pageSize int, err error) {
	p, s := int64(DefaultPage), int64(DefaultPageSize)
	var ok bool
	if rawPage != nil {
		if p, ok = parseInteger(*rawPage); !ok {
			return 0, 0, perrors.Validation("Invalid page or page_size parameter")
		}
	}
	if rawPageSize != nil {
		if s, ok = parseInteger(*rawPageSize); !ok {
			return 0, 0, perrors.Validation("Invalid page or page_size parameter")
		}
	}
	if validate.Var(p, "min=1") != nil {
		return 0, 0, perrors.Validation("Page number must be greater than 0")
	}
	if validate.Var(s, fmt.Sprintf("min=1,max=%d", MaxPageSize)) != nil {
		return 0, 0, perrors.Validation("Page size must be between 1 and 100")
	}
	return int(p), int(s), nil
}

// ValidateName checks that raw is non-blank text.
func ValidateName(raw any) (string, error) {
	name, ok := raw.(string)
	if !ok {
		return "", perrors.Validation("Invalid name format")
	}
	if strings.TrimSpace(name) == "" {
		return "", perrors.Validation("Name cannot be empty")
	}
	return name, nil
}

// ValidateText checks an optional free-text field. JSON null is treated as empty text.
func ValidateText(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", perrors.Validation(fmt.Sprintf("Invalid %s format", strings.ReplaceAll(field, "_", " ")))
	}
}

func nonNegativeInt(raw any, formatMsg, negativeMsg string) (int64, error) {
	n, ok := parseInteger(raw)
	if !ok {
		return 0, perrors.Validation(formatMsg)
	}
	if validate.Var(n, "gte=0") != nil {
		return 0, perrors.Validation(negativeMsg)
	}
	return n, nil
}

// parseInteger accepts Go integers, integral floats, base-10 integer strings
// (surrounding whitespace ignored) and json.Number holding a whole number.
func parseInteger(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		return numberToInt64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// numberToInt64 also takes whole numbers written as 5.0 or 1e3 by JSON encoders.
func numberToInt64(num json.Number) (int64, bool) {
	s := strings.TrimSpace(string(num))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(s)
	// bounding the exponent keeps IsInteger and the comparison from rescaling huge values
	if err != nil || d.Exponent() > 18 || d.Exponent() < -maxPriceScale {
		return 0, false
	}
	if !d.IsInteger() || d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, false
	}
	return d.IntPart(), true
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// numericText renders the supported raw price inputs as decimal text.
func numericText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return string(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	default:
		return "", false
	}
}
