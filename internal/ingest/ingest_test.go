package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

const sampleCSV = `review_id,user_id,business_id,stars,text,business_name,city,state,categories
r1,u1,b1,5,Great!,Joe's Diner,Austin,TX,Restaurants;Diners
r2,u2,b1,3,"The food arrived cold and the service was slow, but the staff apologized.",Joe's Diner,Austin,TX,
r3,u3,b2,,missing stars here,Cafe,Dallas,TX,
r4,u4,b2,7,stars out of range,Cafe,Dallas,TX,
r5,u5,b3,4,,Empty text row,Dallas,TX,
`

func TestReadReviewsCSV(t *testing.T) {
	reviews, rejected, err := ReadReviewsCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Len(t, reviews, 2)
	assert.Equal(t, 3, rejected, "missing stars, out-of-range stars, and empty text are rejected")

	assert.Equal(t, "r1", reviews[0].ReviewID)
	assert.Equal(t, 5, reviews[0].Stars)
	assert.Equal(t, "Great!", reviews[0].Text)
	assert.Equal(t, "Joe's Diner", reviews[0].Business.Name)
	assert.Equal(t, []string{"Restaurants", "Diners"}, reviews[0].Business.Categories)
}

func TestReadReviewsCSV_MissingColumn(t *testing.T) {
	_, _, err := ReadReviewsCSV(context.Background(), strings.NewReader("review_id,stars\nr1,5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestReadReviewsCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ReadReviewsCSV(ctx, strings.NewReader(sampleCSV))
	require.Error(t, err)
}

const sampleJSON = `[
  {"review_id": "r1", "user_id": "u1", "business_id": "b1", "stars": 5, "text": "Great!"},
  {"review_id": "r2", "user_id": "u2", "business_id": "b1", "stars": 0, "text": "bad stars"},
  {"review_id": "", "user_id": "u3", "business_id": "b2", "stars": 3, "text": "no id"}
]`

func TestReadReviewsJSON(t *testing.T) {
	reviews, rejected, err := ReadReviewsJSON(context.Background(), strings.NewReader(sampleJSON))
	require.NoError(t, err)

	require.Len(t, reviews, 1)
	assert.Equal(t, 2, rejected)
	assert.Equal(t, "r1", reviews[0].ReviewID)
}

func TestReadReviewsJSON_NotAnArray(t *testing.T) {
	_, _, err := ReadReviewsJSON(context.Background(), strings.NewReader(`{"review_id":"r1"}`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := model.Review{ReviewID: "r1", Stars: 3, Text: "fine"}
	assert.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(*model.Review)
	}{
		{"missing id", func(r *model.Review) { r.ReviewID = "" }},
		{"blank text", func(r *model.Review) { r.Text = "   " }},
		{"zero stars", func(r *model.Review) { r.Stars = 0 }},
		{"six stars", func(r *model.Review) { r.Stars = 6 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, Validate(r))
		})
	}
}
