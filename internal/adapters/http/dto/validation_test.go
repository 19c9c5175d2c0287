package dto

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
		Count int    `json:"count" validate:"omitempty,min=1,max=50"`
	}

	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantCode    string
		wantDetails []FieldDetail
	}{
		{name: "valid", body: `{"email":"a@example.com","count":3}`, wantOK: true},
		{name: "malformed json", body: `{"email":`, wantCode: ErrorCodeBadRequest},
		{name: "wrong type", body: `{"email":"a@example.com","count":"three"}`, wantCode: ErrorCodeBadRequest},
		{
			name:     "rule violations",
			body:     `{"email":"nope","count":51}`,
			wantCode: ErrorCodeValidation,
			wantDetails: []FieldDetail{
				{Field: "email", Message: "must be a valid email address"},
				{Field: "count", Message: "must be at most 50"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var v body
			ok := Bind(c, &v)

			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.False(t, c.IsAborted())
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantDetails, resp.Details)
		})
	}
}

func TestBindQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantOK    bool
		wantField string
	}{
		{name: "defaults", query: "", wantOK: true},
		{name: "valid", query: "?page=2&limit=50&sortBy=author&order=asc", wantOK: true},
		{name: "limit too large", query: "?limit=101", wantField: "limit"},
		{name: "page zero is default", query: "?page=0", wantOK: true},
		{name: "negative page", query: "?page=-1", wantField: "page"},
		{name: "unknown sort", query: "?sortBy=likes", wantField: "sortBy"},
		{name: "unknown order", query: "?order=up", wantField: "order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/quotes"+tt.query, nil)

			var q ListQuotesQuery
			ok := BindQuery(c, &q)

			require.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				return
			}

			resp := decodeResponse(t, w)
			assert.Equal(t, ErrorCodeValidation, resp.Code)
			assert.Equal(t, MessageValidationFailed, resp.Error)
			require.Len(t, resp.Details, 1)
			assert.Equal(t, tt.wantField, resp.Details[0].Field)
		})
	}
}

func TestBindQuery_MalformedValue(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/quotes?page=two", nil)

	var q ListQuotesQuery
	require.False(t, BindQuery(c, &q))

	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorCodeBadRequest, resp.Code)
	assert.Empty(t, resp.Details)
}

func TestDescribe(t *testing.T) {
	type input struct {
		Name  string `json:"name"     validate:"required"`
		Blank string `json:"blank"    validate:"notempty"`
		Email string `json:"email"    validate:"email"`
		Site  string `json:"site"     validate:"url"`
		Ref   string `json:"ref"      validate:"uuid"`
		Role  string `json:"role"     validate:"oneof=owner viewer"`
		Text  string `json:"text"     validate:"min=5"`
		Bio   string `json:"bio"      validate:"max=3"`
		Count int    `json:"count"    validate:"max=10"`
		Age   int    `json:"age"      validate:"gte=0,lte=120"`
		Score int    `json:"score"    validate:"gt=0"`
		Ratio int    `json:"ratio"    validate:"lt=100"`
		Page  int    `form:"page"     validate:"min=1"`
		Code  string `json:"code"     validate:"hexcolor"`
	}

	err := validate.Struct(&input{
		Blank: " \t",
		Email: "not-an-email",
		Site:  "not a url",
		Ref:   "not-a-uuid",
		Role:  "admin",
		Text:  "abc",
		Bio:   "too long",
		Count: 20,
		Age:   150,
		Ratio: 150,
		Code:  "red",
	})
	require.Error(t, err)

	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	got := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		got[fe.Field()] = describe(fe)
	}

	assert.Equal(t, map[string]string{
		"name":  "this field is required",
		"blank": "must not be empty",
		"email": "must be a valid email address",
		"site":  "must be a valid URL",
		"ref":   "must be a valid UUID",
		"role":  "must be one of: owner viewer",
		"text":  "must be at least 5 characters",
		"bio":   "must be at most 3 characters",
		"count": "must be at most 10",
		"age":   "must be less than or equal to 120",
		"score": "must be greater than 0",
		"ratio": "must be less than 100",
		"page":  "must be at least 1",
		"code":  "failed validation: hexcolor",
	}, got)
}

func TestNotEmpty(t *testing.T) {
	type input struct {
		Name string `json:"name" validate:"notempty"`
	}

	for value, valid := range map[string]bool{
		"hello":     true,
		"  hello  ": true,
		"":          false,
		"   ":       false,
		"\t  \n":    false,
	} {
		err := validate.Struct(&input{Name: value})
		assert.Equal(t, valid, err == nil, "value %q", value)
	}
}
