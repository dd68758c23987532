package handler

import (
	"errors"
	"net/http"

	"houseprice/internal/metrics"
	"houseprice/internal/middleware"
	"houseprice/internal/model"
	"houseprice/internal/service"
	"houseprice/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// maxFormMemory bounds multipart fields held in memory
const maxFormMemory = 32 << 20

// PredictHandler serves the prediction form and the JSON prediction API
type PredictHandler struct {
	predictionService *service.PredictionService
	printer           *message.Printer
	logger            *zap.Logger
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(predictionService *service.PredictionService, logger *zap.Logger) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictHandler{
		predictionService: predictionService,
		printer:           message.NewPrinter(language.English),
		logger:            logger,
	}
}

// Index handles GET /
func (h *PredictHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, web.IndexTemplate, h.newView(nil))
}

// Submit handles POST / - failures are rendered on the page, never as an error status
func (h *PredictHandler) Submit(c *gin.Context) {
	// urlencoded bodies are parsed too; ErrNotMultipart only means there was no multipart part
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		view := h.newView(nil)
		view.Error = "Invalid form: " + err.Error()
		metrics.RecordPrediction(metrics.ChannelForm, metrics.OutcomeValidationError)
		c.HTML(http.StatusOK, web.IndexTemplate, view)
		return
	}

	form := c.Request.PostForm
	view := h.newView(form)

	features, err := h.predictionService.FeaturesFromForm(form)
	if err == nil {
		var y float64
		y, err = h.predictionService.Predict(c.Request.Context(), features)
		if err == nil {
			formatted := h.printer.Sprint(number.Decimal(y, number.Scale(2), number.NoSeparator()))
			view.Prediction = &formatted
		}
	}

	if err != nil {
		view.Error = err.Error()
		h.logFailure(c, metrics.ChannelForm, err)
	} else {
		metrics.RecordPrediction(metrics.ChannelForm, metrics.OutcomeSuccess)
	}

	c.HTML(http.StatusOK, web.IndexTemplate, view)
}

// APIPredict handles POST /api/predict
func (h *PredictHandler) APIPredict(c *gin.Context) {
	var req model.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordPrediction(metrics.ChannelAPI, metrics.OutcomeValidationError)
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	features, err := h.predictionService.FeaturesFromJSON(req)
	if err != nil {
		h.logFailure(c, metrics.ChannelAPI, err)
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	y, err := h.predictionService.Predict(c.Request.Context(), features)
	if err != nil {
		h.logFailure(c, metrics.ChannelAPI, err)
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	metrics.RecordPrediction(metrics.ChannelAPI, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, model.PredictResponse{Prediction: y})
}

// ModelInfo handles GET /api/model
func (h *PredictHandler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.predictionService.Info())
}

func (h *PredictHandler) newView(form map[string][]string) model.FormView {
	info := h.predictionService.Info()
	values := make(map[string]string, len(model.FeatureColumns))
	for _, field := range model.FeatureColumns {
		if v := form[field]; len(v) > 0 {
			values[field] = v[0]
		}
	}
	return model.FormView{
		Values:        values,
		Neighborhoods: info.Neighborhoods,
		ModelName:     info.Name,
	}
}

func (h *PredictHandler) logFailure(c *gin.Context, channel string, err error) {
	outcome := metrics.OutcomeValidationError
	if service.KindOf(err) == service.ErrKindInference {
		outcome = metrics.OutcomeInferenceError
	}
	metrics.RecordPrediction(channel, outcome)

	h.logger.Info("prediction rejected",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("channel", channel),
		zap.String("outcome", outcome),
		zap.Error(err),
	)
}
