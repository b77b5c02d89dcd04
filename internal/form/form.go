// Package form holds the typed inputs accepted by the write endpoints and the
// field-level validation applied to them before anything reaches storage.
package form

import (
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to its messages. A nil or empty map means valid.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgTooLong       = "Ensure this value has at most %s characters."
	MsgTooShort      = "Ensure this value has at least %s characters."
	MsgUsername      = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgCodeLength    = "Enter the %s digit code from the email."
	MsgUsernameTaken = "A user with that username already exists."
	MsgEmailTaken    = "A user with that email already exists."
	MsgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgOldPassword   = "Your old password was entered incorrectly. Please enter it again."
	MsgBadCode       = "The code is invalid or has expired."
	MsgSlug          = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
)

// NonField collects errors that belong to the form as a whole.
const NonField = "__all__"

// PostInput is the create/edit post form. Group is the raw group id; empty means no group.
type PostInput struct {
	Text  string                `form:"text" json:"text" validate:"required"`
	Group string                `form:"group" json:"group"`
	Image *multipart.FileHeader `form:"-" json:"-"`
}

// GroupID parses Group. ok is false when a value was given but is not an id.
func (in *PostInput) GroupID() (id *uint64, ok bool) {
	raw := strings.TrimSpace(in.Group)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, false
	}
	return &v, true
}

type CommentInput struct {
	Text string `form:"text" json:"text" validate:"required"`
}

type SignupInput struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Email     string `form:"email" json:"email" validate:"required,email,max=254"`
	Password  string `form:"password" json:"password" validate:"required,min=8,max=128"`
}

type LoginInput struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

type PasswordChangeInput struct {
	OldPassword string `form:"old_password" json:"old_password" validate:"required"`
	NewPassword string `form:"new_password" json:"new_password" validate:"required,min=8,max=128"`
}

type PasswordResetInput struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

type PasswordResetConfirmInput struct {
	Email       string `form:"email" json:"email" validate:"required,email"`
	Code        string `form:"code" json:"code" validate:"required,len=6,numeric"`
	NewPassword string `form:"new_password" json:"new_password" validate:"required,min=8,max=128"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case strings.ContainsRune("@.+-_", r):
			default:
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				return false
			}
		}
		return true
	})
	return v
}

// Validate trims the string fields of the struct pointed to by in and returns
// the per-field errors. It never returns an error for a well-formed input type.
func Validate(in any) Errors {
	trim(in)
	errs := Errors{}
	err := validate.Struct(in)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonField, err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "max":
		return fmt.Sprintf(MsgTooLong, fe.Param())
	case "min":
		return fmt.Sprintf(MsgTooShort, fe.Param())
	case "username":
		return MsgUsername
	case "slug":
		return MsgSlug
	case "len", "numeric":
		return fmt.Sprintf(MsgCodeLength, "6")
	}
	return fmt.Sprintf("Invalid value (%s).", fe.Tag())
}

// ValidateImage accepts a nil header (no upload) and otherwise requires the
// content to sniff as an image.
func ValidateImage(fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("unsupported upload type %s", mt.String())
	}
	return nil
}

// trim strips surrounding whitespace from every exported string field except
// passwords, so "   " fails a required check the same way "" does.
func trim(in any) {
	v := reflect.ValueOf(in)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() {
			continue
		}
		switch t.Field(i).Name {
		case "Password", "OldPassword", "NewPassword":
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}
