package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "json", formatFromPath("reviews.json"))
	assert.Equal(t, "csv", formatFromPath("reviews.csv"))
	assert.Equal(t, "csv", formatFromPath("reviews.txt"))
}

func TestWritePredictionsCSV(t *testing.T) {
	preds := []model.Prediction{
		{ReviewID: "r1", LikelyFake: true, FakeProbability: 0.91},
		{ReviewID: "r2", LikelyFake: false, FakeProbability: 0.12},
	}

	var buf bytes.Buffer
	require.NoError(t, writePredictionsCSV(&buf, preds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "review_id,likely_fake,fake_probability", lines[0])
	assert.Equal(t, "r1,true,0.910000", lines[1])
	assert.Equal(t, "r2,false,0.120000", lines[2])
}

func TestWritePredictionsTable(t *testing.T) {
	preds := []model.Prediction{
		{ReviewID: "r1", LikelyFake: true, FakeProbability: 0.91},
	}

	var buf bytes.Buffer
	require.NoError(t, writePredictionsTable(&buf, preds))
	assert.Contains(t, buf.String(), "REVIEW_ID")
	assert.Contains(t, buf.String(), "r1")
	assert.Contains(t, buf.String(), "0.9100")
}

func TestWriteLabeledCSV(t *testing.T) {
	labeled := []model.LabeledReview{
		{
			Review: model.Review{ReviewID: "r1", UserID: "u1", BusinessID: "b1", Stars: 5, Text: "Great!"},
			Labels: model.NewLabels(true, true),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeLabeledCSV(&buf, labeled))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "review_id,user_id,business_id,stars,text,extreme_sentiment,poor_quality,likely_fake", lines[0])
	assert.Equal(t, "r1,u1,b1,5,Great!,true,true,true", lines[1])
}
