package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	io "io/ioutil"
	"net/http"
	"time"

	"bitbucket.org/vecpay/backend/models"
	"github.com/pkg/errors"
)

const gwContentType = `application/json`

var ErrNotConfigured = errors.New("payment gateway not configured")

// Client talks to the external acquirer. It satisfies payments.Gateway.
type Client struct {
	BaseURL    string
	APIKey     string
	ChargePath string
	Timeout    time.Duration
}

type chargeRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type chargeResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

func (c *Client) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

func (c *Client) Authorize(p *models.Payment) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	requestBody := chargeRequest{
		Reference: p.ID,
		Amount:    p.Amount.String(),
		Currency:  p.Currency,
	}

	responseBody, err := c.post(fmt.Sprintf("%s%s?access_token=%s", c.BaseURL, c.ChargePath, c.APIKey), &requestBody)
	if err != nil {
		return err
	}

	if responseBody == nil {
		return errors.New("empty response from payment gateway")
	}

	var response chargeResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return err
	}

	if response.Status != "approved" {
		return errors.Errorf("gateway declined charge: %s", response.Message)
	}

	return nil
}

func (c *Client) post(url string, body interface{}) ([]byte, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: c.Timeout}
	response, err := client.Post(url, gwContentType, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad response %d", response.StatusCode)
	}

	return responseBody, nil
}
