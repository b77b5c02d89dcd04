package form

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGIF is a valid 2x1 gif.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestValidate_PostInput(t *testing.T) {
	in := &PostInput{Text: "   "}
	errs := Validate(in)
	assert.False(t, errs.Valid())
	assert.Equal(t, []string{MsgRequired}, errs["text"])

	in = &PostInput{Text: "  hello  "}
	assert.True(t, Validate(in).Valid())
	assert.Equal(t, "hello", in.Text)
}

func TestPostInput_GroupID(t *testing.T) {
	id, ok := (&PostInput{}).GroupID()
	assert.True(t, ok)
	assert.Nil(t, id)

	id, ok = (&PostInput{Group: "12"}).GroupID()
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, uint64(12), *id)

	_, ok = (&PostInput{Group: "twelve"}).GroupID()
	assert.False(t, ok)
	_, ok = (&PostInput{Group: "0"}).GroupID()
	assert.False(t, ok)
}

func TestValidate_SignupInput(t *testing.T) {
	errs := Validate(&SignupInput{Username: "bad name", Email: "nope", Password: "short"})
	assert.Equal(t, []string{MsgUsername}, errs["username"])
	assert.Equal(t, []string{MsgInvalidEmail}, errs["email"])
	assert.Len(t, errs["password"], 1)

	ok := Validate(&SignupInput{Username: "leo.t", Email: "leo@example.com", Password: "  spaced password  "})
	assert.True(t, ok.Valid())
}

func TestValidate_PasswordNotTrimmed(t *testing.T) {
	in := &LoginInput{Username: " leo ", Password: " pw "}
	Validate(in)
	assert.Equal(t, "leo", in.Username)
	assert.Equal(t, " pw ", in.Password)
}

func TestValidate_ResetCode(t *testing.T) {
	errs := Validate(&PasswordResetConfirmInput{Email: "a@b.co", Code: "12ab56", NewPassword: "long enough"})
	assert.Contains(t, errs, "code")
	assert.NotContains(t, errs, "email")
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(nil))
	assert.NoError(t, ValidateImage(fileHeader(t, "small.gif", smallGIF)))
	assert.Error(t, ValidateImage(fileHeader(t, "notes.gif", []byte("plain text, not an image"))))
}
