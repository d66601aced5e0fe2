package core

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Problems is the result of Validate. An empty list means the document is
// publishable.
type Problems []string

// Valid reports whether no problems were found.
func (p Problems) Valid() bool {
	return len(p) == 0
}

// Err returns a *ValidationError listing the problems, or nil.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: append([]string(nil), p...)}
}

var (
	documentValidator = newDocumentValidator()
	appIndexPattern   = regexp.MustCompile(`\.apps\[(\d+)\]`)
)

func newDocumentValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so messages can be keyed on them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks src against the publishing rules and returns one message
// per violation: the source name, at least one app, and for every app its
// name, bundle identifier, developer name and at least one version.
// Messages follow field order, apps in index order.
func Validate(src Source) Problems {
	problems := Problems{}

	err := documentValidator.Struct(src)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return problems
	}
	for _, fe := range fieldErrs {
		problems = append(problems, problemMessage(fe))
	}
	return problems
}

func problemMessage(fe validator.FieldError) string {
	m := appIndexPattern.FindStringSubmatch(fe.Namespace())
	if m == nil {
		switch fe.Field() {
		case "name":
			return "Source name is required"
		case "apps":
			return "At least one app is required"
		}
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}

	index, _ := strconv.Atoi(m[1])
	label := fmt.Sprintf("App %d", index+1)
	switch fe.Field() {
	case "name":
		return label + ": Name is required"
	case "bundleIdentifier":
		return label + ": Bundle identifier is required"
	case "developerName":
		return label + ": Developer name is required"
	case "versions":
		return label + ": At least one version is required"
	}
	return fmt.Sprintf("%s: %s failed %s validation", label, fe.Field(), fe.Tag())
}
