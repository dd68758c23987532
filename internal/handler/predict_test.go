package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"houseprice/internal/estimator"
	"houseprice/internal/metrics"
	"houseprice/internal/model"
	"houseprice/internal/service"
	"houseprice/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const examplePayload = `{"OverallQual": 7, "GrLivArea": 1500, "GarageCars": 2, "TotalBsmtSF": 800,
	"FullBath": 2, "YearBuilt": 2005, "Neighborhood": "CollgCr"}`

var twoDecimals = regexp.MustCompile(`Predicted sale price: \$(-?\d+\.\d{2})<`)

func setupRouter(t *testing.T, artifact string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pipeline, err := estimator.LoadFile("../estimator/testdata/" + artifact)
	require.NoError(t, err)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	h := NewPredictHandler(service.NewPredictionService(pipeline, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", h.Index)
	r.POST("/", h.Submit)
	r.POST("/api/predict", h.APIPredict)
	r.GET("/api/model", h.ModelInfo)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postForm(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func exampleForm() url.Values {
	return url.Values{
		"OverallQual":  {"7"},
		"GrLivArea":    {"1500"},
		"GarageCars":   {"2"},
		"TotalBsmtSF":  {"800"},
		"FullBath":     {"2"},
		"YearBuilt":    {"2005"},
		"Neighborhood": {"CollgCr"},
	}
}

func decodePrediction(t *testing.T, w *httptest.ResponseRecorder) float64 {
	t.Helper()
	var resp model.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Prediction
}

func TestAPIPredict_Example(t *testing.T) {
	r := setupRouter(t, "linear.json")
	before := testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues(metrics.ChannelAPI, metrics.OutcomeSuccess))

	w := postJSON(r, examplePayload)

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 8285.25, decodePrediction(t, w), 1e-9)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues(metrics.ChannelAPI, metrics.OutcomeSuccess)))
}

func TestAPIPredict_Unrounded(t *testing.T) {
	r := setupRouter(t, "linear.json")

	// GrLivArea coefficient is 1, so a fractional area passes straight through
	w := postJSON(r, strings.Replace(examplePayload, `"GrLivArea": 1500`, `"GrLivArea": 1500.125`, 1))

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 8285.375, decodePrediction(t, w), 1e-9)
}

func TestAPIPredict_Errors(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
		body     string
		wantErr  string
	}{
		{
			name:     "missing quality",
			artifact: "linear.json",
			body:     `{"GrLivArea": 1500, "GarageCars": 2, "TotalBsmtSF": 800, "FullBath": 2, "YearBuilt": 2005, "Neighborhood": "CollgCr"}`,
			wantErr:  "OverallQual: field is required",
		},
		{
			name:     "non numeric",
			artifact: "linear.json",
			body:     strings.Replace(examplePayload, `"GarageCars": 2`, `"GarageCars": "two"`, 1),
			wantErr:  `GarageCars: invalid number "two"`,
		},
		{
			name:     "malformed json",
			artifact: "linear.json",
			body:     `{"OverallQual": 7,`,
			wantErr:  "Invalid request:",
		},
		{
			name:     "array body",
			artifact: "linear.json",
			body:     `[1, 2, 3]`,
			wantErr:  "Invalid request:",
		},
		{
			name:     "unknown neighborhood",
			artifact: "gradient_boosting.json",
			body:     strings.Replace(examplePayload, "CollgCr", "Atlantis", 1),
			wantErr:  "prediction failed: unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(setupRouter(t, tt.artifact), tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestAPIPredict_Idempotent(t *testing.T) {
	r := setupRouter(t, "gradient_boosting.json")

	first := decodePrediction(t, postJSON(r, examplePayload))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, decodePrediction(t, postJSON(r, examplePayload)))
	}
}

func TestAPIPredict_KeyOrder(t *testing.T) {
	r := setupRouter(t, "linear.json")

	permuted := `{"Neighborhood": "CollgCr", "FullBath": 2, "YearBuilt": 2005, "GrLivArea": 1500,
		"TotalBsmtSF": 800, "OverallQual": 7, "GarageCars": 2}`

	assert.Equal(t, decodePrediction(t, postJSON(r, examplePayload)), decodePrediction(t, postJSON(r, permuted)))
}

func TestIndex(t *testing.T) {
	r := setupRouter(t, "linear.json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="OverallQual"`)
	assert.Contains(t, body, `<option value="NAmes">`)
	assert.NotContains(t, body, "Predicted sale price")
	assert.NotContains(t, body, `id="error"`)
}

func TestSubmit_Example(t *testing.T) {
	r := setupRouter(t, "linear.json")

	w := postForm(r, exampleForm())

	require.Equal(t, http.StatusOK, w.Code)
	match := twoDecimals.FindStringSubmatch(w.Body.String())
	require.NotNil(t, match, w.Body.String())
	assert.Equal(t, "8285.25", match[1])
	assert.NotContains(t, w.Body.String(), `id="error"`)
	// inputs are echoed back
	assert.Contains(t, w.Body.String(), `value="1500"`)
}

func TestSubmit_Multipart(t *testing.T) {
	r := setupRouter(t, "linear.json")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, values := range exampleForm() {
		require.NoError(t, mw.WriteField(field, values[0]))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	match := twoDecimals.FindStringSubmatch(w.Body.String())
	require.NotNil(t, match, w.Body.String())
	assert.Equal(t, "8285.25", match[1])
	assert.NotContains(t, w.Body.String(), `id="error"`)
}

func TestSubmit_MalformedBody(t *testing.T) {
	r := setupRouter(t, "linear.json")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("OverallQual=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid form:")
	assert.NotContains(t, w.Body.String(), "Predicted sale price")
}

func TestSubmit_RoundsToTwoDecimals(t *testing.T) {
	r := setupRouter(t, "linear.json")

	form := exampleForm()
	form.Set("GrLivArea", "1500.126")
	w := postForm(r, form)

	require.Equal(t, http.StatusOK, w.Code)
	match := twoDecimals.FindStringSubmatch(w.Body.String())
	require.NotNil(t, match, w.Body.String())
	assert.Equal(t, "8285.38", match[1])
}

func TestSubmit_InvalidNumber(t *testing.T) {
	r := setupRouter(t, "linear.json")

	form := exampleForm()
	form.Set("GrLivArea", "abc")
	w := postForm(r, form)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="error"`)
	assert.Contains(t, body, "GrLivArea: invalid number")
	assert.NotContains(t, body, "Predicted sale price")
}

func TestSubmit_InferenceError(t *testing.T) {
	r := setupRouter(t, "gradient_boosting.json")

	form := exampleForm()
	form.Set("Neighborhood", "Atlantis")
	w := postForm(r, form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prediction failed: unknown category")
	assert.NotContains(t, w.Body.String(), "Predicted sale price")
}

func TestSubmit_Empty(t *testing.T) {
	r := setupRouter(t, "linear.json")

	w := postForm(r, url.Values{})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OverallQual: field is required")
}

func TestModelInfo(t *testing.T) {
	r := setupRouter(t, "random_forest.json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/model", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var info estimator.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, estimator.KindRandomForest, info.Estimator)
	assert.Equal(t, 2, info.Trees)
	assert.Equal(t, model.FeatureColumns, info.Features)
}
