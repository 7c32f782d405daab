package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/Akaza561/med-bridge/internal/domain"
)

// Analyzer контракт шлюза анализа изображений: фотографии упаковки на
// входе, извлечённые поля или ошибка на выходе. Вызов непрозрачный,
// потенциально медленный; повторов внутри нет — повтор только руками
// пользователя.
type Analyzer interface {
	Analyze(ctx context.Context, images []string) (domain.MedicineDetails, error)
}

var (
	// ErrNoData сервис не вернул пригодного текста
	ErrNoData = errors.New("no data found")
	// ErrUnreadable ответ сервиса не разбирается в ожидаемую структуру
	ErrUnreadable = errors.New("could not read medicine data")
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const extractionPrompt = "Tell me the name, expiry date, and dosage of the medicine shown in these photo(s). Look at all images provided to find the information."

const systemInstruction = "You are a pharmaceutical data extractor. Analyze the provided images of medicine packaging and return a JSON object with 'medicineName', 'expiryDate', and 'dosage'. If multiple images are provided, combine the information found across all of them. Use 'Not Found' for missing fields."

// Client клиент generateContent. Таймаута у запроса нет намеренно:
// зависший вызов блокирует только свой поток регистрации, отмена —
// через ctx.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *logrus.Logger
}

var _ Analyzer = (*Client)(nil)

func NewClient(apiKey, model string, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		log:        log,
	}
}

// NewClientWithBaseURL для тестов: клиент, направленный на подставной сервер
func NewClientWithBaseURL(baseURL, apiKey, model string, log *logrus.Logger) *Client {
	c := NewClient(apiKey, model, log)
	c.baseURL = baseURL
	return c
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type schemaProp struct {
	Type string `json:"type"`
}

type responseSchema struct {
	Type       string                `json:"type"`
	Properties map[string]schemaProp `json:"properties"`
	Required   []string              `json:"required"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   responseSchema `json:"responseSchema"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction content          `json:"systemInstruction"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// Analyze отправляет все изображения одним запросом; поля, которых нет
// в разобранном ответе, заполняются сентинелом domain.NotFound
func (c *Client) Analyze(ctx context.Context, images []string) (domain.MedicineDetails, error) {
	var details domain.MedicineDetails

	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     stripDataURL(img),
		}})
	}
	parts = append(parts, part{Text: extractionPrompt})

	reqBody := generateRequest{
		Contents:          []content{{Parts: parts}},
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: responseSchema{
				Type: "OBJECT",
				Properties: map[string]schemaProp{
					"medicineName": {Type: "STRING"},
					"expiryDate":   {Type: "STRING"},
					"dosage":       {Type: "STRING"},
				},
				Required: []string{"medicineName", "expiryDate", "dosage"},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return details, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return details, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return details, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return details, fmt.Errorf("analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Warn("analysis call failed")
		return details, fmt.Errorf("analysis service returned %d", resp.StatusCode)
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return details, ErrNoData
	}

	parsed := gjson.Parse(text)
	if !parsed.IsObject() {
		return details, ErrUnreadable
	}
	details.MedicineName = fieldOr(parsed, "medicineName")
	details.ExpiryDate = fieldOr(parsed, "expiryDate")
	details.Dosage = fieldOr(parsed, "dosage")
	return details, nil
}

func fieldOr(v gjson.Result, name string) string {
	if f := v.Get(name); f.Exists() && f.String() != "" {
		return f.String()
	}
	return domain.NotFound
}

// stripDataURL срезает префикс data-URL, если изображение пришло в нём
func stripDataURL(img string) string {
	if i := strings.IndexByte(img, ','); i >= 0 && strings.HasPrefix(img, "data:") {
		return img[i+1:]
	}
	return img
}
