package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sumitahmed/vidtube/internal/models"
)

// validate checks the `validate` tags on request payload structs. One shared
// instance; the validator caches struct metadata internally.
var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// decodeJSON reads a JSON request body into dst and runs struct validation.
// The returned error message is safe to echo back to the caller.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return errors.New("invalid request body")
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			field := fields[0]
			return fmt.Errorf("field %s failed validation on %s", jsonFieldName(field), field.Tag())
		}
		return errors.New("invalid request body")
	}
	return nil
}

func jsonFieldName(field validator.FieldError) string {
	// Namespace is Struct.Field; the trailing segment reads better in errors.
	parts := strings.Split(field.Namespace(), ".")
	return strings.ToLower(parts[len(parts)-1][:1]) + parts[len(parts)-1][1:]
}

// parsePage normalizes page/limit query parameters into a bounded window.
func parsePage(r *http.Request) models.PageRequest {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return models.PageRequest{Page: page, Limit: limit}
}

// pagedResponse is the shape listing endpoints put in the data field.
type pagedResponse struct {
	Items      any               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func newPagedResponse(items any, page models.PageRequest, total int64) pagedResponse {
	return pagedResponse{
		Items:      items,
		Pagination: models.NewPagination(page.Page, page.Limit, total),
	}
}

// formFile opens a multipart file field and reports whether it was supplied.
func formFile(r *http.Request, field string) (io.ReadCloser, string, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", false, nil
		}
		return nil, "", false, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, true, nil
}
