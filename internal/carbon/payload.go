// Package carbon turns a code snippet and style options into a request for
// the external code-screenshot renderer.
package carbon

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/codeshot-be/internal/apperrors"
)

// NewLine replaces "\n" in submitted code. The renderer decodes the code
// parameter twice, so a plain %0A is lost.
// See https://github.com/cyberboysumanjay/Carbon-API/issues/9
const NewLine = "%250A"

const (
	DefaultTheme    = "Sethi"
	DefaultLanguage = "Python"
)

// queryKeys maps the style parameters the renderer understands to the
// query keys it expects.
var queryKeys = map[string]string{
	"backgroundColor":      "bg",
	"code":                 "code",
	"theme":                "t",
	"windowTheme":          "wt",
	"language":             "l",
	"dropShadow":           "ds",
	"dropShadowOffsetY":    "dsyoff",
	"dropShadowBlurRadius": "dsblur",
	"windowControls":       "wc",
	"widthAdjustment":      "wa",
	"paddingVertical":      "pv",
	"paddingHorizontal":    "ph",
	"lineNumbers":          "ln",
	"firstLineNumber":      "fl",
	"fontFamily":           "fm",
	"fontSize":             "fs",
	"lineHeight":           "lh",
	"squaredImage":         "si",
	"exportSize":           "es",
	"watermark":            "wm",
}

// ImageRequest is a normalized render request.
type ImageRequest struct {
	Code     string            `json:"code" validate:"required"`
	Theme    string            `json:"theme" validate:"required"`
	Language string            `json:"language" validate:"required"`
	Style    map[string]string `json:"parameters" validate:"dive,keys,styleparam,endkeys,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	// theme, language and code travel in their own fields
	v.RegisterValidation("styleparam", func(fl validator.FieldLevel) bool {
		key := fl.Field().String()
		_, known := queryKeys[key]
		return known && key != "code" && key != "theme" && key != "language"
	})
	return v
}

// BuildImageRequest escapes newlines in code and merges params over the
// default theme and language. Any key in params, theme and language
// included, overrides the default. params is not modified.
func BuildImageRequest(code string, params map[string]string) ImageRequest {
	req := ImageRequest{
		Code:     strings.ReplaceAll(code, "\n", NewLine),
		Theme:    DefaultTheme,
		Language: DefaultLanguage,
		Style:    make(map[string]string, len(params)),
	}
	for k, v := range params {
		switch k {
		case "theme":
			req.Theme = v
		case "language":
			req.Language = v
		default:
			req.Style[k] = v
		}
	}
	return req
}

// Validate checks req against the renderer's rules: code, theme and language
// must be non-empty and every style parameter must be known and non-empty.
func Validate(req ImageRequest) (ImageRequest, error) {
	err := validate.Struct(req)
	if err == nil {
		return req, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ImageRequest{}, apperrors.New(apperrors.ErrValidation, err.Error())
	}

	// Report the first problem in a stable order.
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	sort.Strings(msgs)
	return ImageRequest{}, apperrors.New(apperrors.ErrValidation, msgs[0])
}

func describe(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "styleparam":
		return fmt.Sprintf("unknown style parameter %q", fe.Value())
	case strings.HasPrefix(fe.Field(), "parameters["):
		name := strings.TrimSuffix(strings.TrimPrefix(fe.Field(), "parameters["), "]")
		return fmt.Sprintf("style parameter %q must not be empty", name)
	default:
		return fmt.Sprintf("%s must not be empty", fe.Field())
	}
}
