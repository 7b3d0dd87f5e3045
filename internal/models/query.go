package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// QueryRequest is a search request, optionally asking for a generated answer.
type QueryRequest struct {
	Query          string `json:"query" validate:"required"`
	TopK           *int   `json:"top_k,omitempty" validate:"omitnil,gte=1"`
	GenerateAnswer bool   `json:"generate_answer,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate trims the query, rejects empty queries and non-positive top_k, then applies the
// default top_k and caps it at maxTopK. Rejections wrap ErrInvalidArgument.
func (q *QueryRequest) Validate(defaultTopK, maxTopK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, validationMessage(err))
	}
	if q.TopK == nil {
		k := defaultTopK
		q.TopK = &k
	}
	if maxTopK > 0 && *q.TopK > maxTopK {
		*q.TopK = maxTopK
	}
	return nil
}

// Limit returns the requested top_k, or 0 when unset.
func (q *QueryRequest) Limit() int {
	if q.TopK == nil {
		return 0
	}
	return *q.TopK
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Query":
		return "query cannot be empty"
	case "TopK":
		return "top_k must be at least 1"
	}
	return fe.Error()
}
