package quote

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"freightquote/internal/rate"
)

const (
	MinWeightKg    = 0.1
	MaxWeightKg    = 100000.0
	MaxDimensionCm = 10000.0
	minPhoneDigits = 10
	minPlaceLength = 3
)

// Error codes carried by FieldError.
const (
	CodeRequired = "required"
	CodeInvalid  = "invalid"
	CodeRange    = "range"
)

var (
	postalCodeRe = regexp.MustCompile(`^[0-9]{5}-?[0-9]{3}$`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	whitespaceRe = regexp.MustCompile(`\s`)
	weightJunkRe = regexp.MustCompile(`[^\d.,]`)
	floatPrefix  = regexp.MustCompile(`^\d*\.?\d*`)

	validate = validator.New()
)

// Major Brazilian port codes accepted as places.
var portCodes = []string{
	"BRSSZ", "BRSFS", "BRPNG", "BRRIO", "BRVIX", "BRSUA", "BRPEC", "BRNVT",
	"BRMAO", "BRSSA", "BRMCP", "BRSLV", "BRITJ", "BRITQ", "BRNAT",
}

// FormValue is a raw form field. It decodes from a JSON string or number.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("form value must be a string or number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// Form holds the raw, unvalidated quote form fields.
type Form struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Weight      FormValue `json:"weight"`
	Mode        string    `json:"mode"`
	Length      FormValue `json:"length,omitempty"`
	Width       FormValue `json:"width,omitempty"`
	Height      FormValue `json:"height,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// FieldError describes why one form field was rejected.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors maps form field names to their errors.
type ValidationErrors map[string]FieldError

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f].Message)
	}
	return "invalid quote form: " + strings.Join(parts, "; ")
}

func (e ValidationErrors) add(field, code, msg string) {
	e[field] = FieldError{Code: code, Message: msg}
}

// Validate checks a raw form and returns the request it describes.
// The error, when non-nil, is always ValidationErrors.
func Validate(f Form) (Request, error) {
	errs := ValidationErrors{}
	req := Request{
		Origin:      validatePlace(errs, "origin", "enter the origin", f.Origin),
		Destination: validatePlace(errs, "destination", "enter the destination", f.Destination),
		WeightKg:    ParseNumber(string(f.Weight)),
	}

	if req.WeightKg < MinWeightKg {
		errs.add("weight", CodeRange, "minimum weight: 0.1 kg")
	} else if req.WeightKg > MaxWeightKg {
		errs.add("weight", CodeRange, "maximum weight: 100,000 kg")
	}

	if m, ok := rate.ParseMode(f.Mode); ok {
		req.Mode = m
	} else {
		errs.add("mode", CodeRequired, "select a transport mode")
	}

	req.LengthCm = validateDimension(errs, "length", f.Length)
	req.WidthCm = validateDimension(errs, "width", f.Width)
	req.HeightCm = validateDimension(errs, "height", f.Height)

	req.Email = ValidateEmail(errs, "email", f.Email)
	req.Phone = ValidatePhone(errs, "phone", f.Phone)

	if len(errs) > 0 {
		return Request{}, errs
	}
	return req, nil
}

// Validate re-checks an already built request.
func (r Request) Validate() error {
	_, err := Validate(r.Form())
	return err
}

func validatePlace(errs ValidationErrors, field, requiredMsg, raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		errs.add(field, CodeRequired, requiredMsg)
		return ""
	}
	if v[0] >= '0' && v[0] <= '9' {
		v = FormatPostalCode(v)
	}
	if IsPostalCode(v) || utf8.RuneCountInString(v) >= minPlaceLength {
		return v
	}
	errs.add(field, CodeInvalid, "enter a valid postal code (e.g. 01001-000) or a city/port name")
	return ""
}

func validateDimension(errs ValidationErrors, field string, raw FormValue) *float64 {
	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	v := ParseNumber(string(raw))
	if v < 0 || v > MaxDimensionCm {
		errs.add(field, CodeRange, field+" must be between 0 and 10,000 cm")
		return nil
	}
	return &v
}

// ValidateEmail checks an optional email address. Empty input is accepted.
func ValidateEmail(errs ValidationErrors, field, raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if err := validate.Var(v, "email"); err != nil {
		errs.add(field, CodeInvalid, "invalid email")
		return ""
	}
	return v
}

// ValidatePhone checks an optional phone number and returns its digits.
func ValidatePhone(errs ValidationErrors, field, raw string) string {
	if raw == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < minPhoneDigits {
		errs.add(field, CodeInvalid, "phone must have at least 10 digits")
		return ""
	}
	return digits
}

// ParseNumber reads a numeric form value the way the weight input does:
// stray characters are dropped, the first comma becomes a decimal point and
// the longest numeric prefix is used. Unparseable input yields 0.
func ParseNumber(raw string) float64 {
	s := weightJunkRe.ReplaceAllString(raw, "")
	s = strings.Replace(s, ",", ".", 1)
	num := floatPrefix.FindString(s)
	if num == "" || num == "." {
		return 0
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return f
}

// IsPostalCode reports whether v looks like a Brazilian postal code (CEP).
func IsPostalCode(v string) bool {
	return postalCodeRe.MatchString(whitespaceRe.ReplaceAllString(v, ""))
}

// IsPortCode reports whether v is one of the known port codes.
func IsPortCode(v string) bool {
	up := strings.ToUpper(strings.TrimSpace(v))
	for _, c := range portCodes {
		if c == up {
			return true
		}
	}
	return false
}

// FormatPostalCode masks the digits of v as 00000-000.
func FormatPostalCode(v string) string {
	d := nonDigitRe.ReplaceAllString(v, "")
	if len(d) <= 5 {
		return d
	}
	end := len(d)
	if end > 8 {
		end = 8
	}
	return d[:5] + "-" + d[5:end]
}

// FormatPhone masks the digits of v as (00) 00000-0000.
func FormatPhone(v string) string {
	d := nonDigitRe.ReplaceAllString(v, "")
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:11]
	}
}
