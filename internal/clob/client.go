package clob

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/pkg/types"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Client is the order gateway against the Polymarket CLOB: public order-book
// reads plus authenticated GTC limit buys. Order auth is optional; a client
// without credentials can still fetch books.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	// Order auth; nil privateKey means read-only.
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string
	proxyAddress  string
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
}

// Config holds CLOB client configuration.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	ProxyAddress  string
	SignatureType int
	Logger        *zap.Logger
}

// NewClient creates a CLOB client. When cfg.PrivateKey is empty the client
// is read-only and PlaceLimitBuyGTC fails fast.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}

	if cfg.PrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}

		publicKey, _ := privateKey.Public().(*ecdsa.PublicKey)

		c.apiKey = cfg.APIKey
		c.secret = cfg.Secret
		c.passphrase = cfg.Passphrase
		c.privateKey = privateKey
		c.address = crypto.PubkeyToAddress(*publicKey).Hex()
		c.proxyAddress = cfg.ProxyAddress
		c.signatureType = model.SignatureType(cfg.SignatureType)
		// Polygon mainnet.
		c.orderBuilder = builder.NewExchangeOrderBuilderImpl(big.NewInt(137), nil)
	}

	return c, nil
}

// OrderBook fetches the current book for a token.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	endpoint := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, tokenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polymarket-hedge/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	BookFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, &types.APIError{Endpoint: "/book", Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &types.APIError{Endpoint: "/book", Status: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var book types.OrderBook
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}

	if book.TokenID == "" {
		book.TokenID = tokenID
	}

	return &book, nil
}

// signedOrderJSON is the wire shape the CLOB expects for a signed order.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type orderResponse struct {
	OrderID  string `json:"orderID"`
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
}

// PlaceLimitBuyGTC submits a good-till-cancelled limit buy for size shares of
// tokenID at price. Returns the venue order id, a venue-side rejection reason
// (empty when accepted), or a transport/signing error.
func (c *Client) PlaceLimitBuyGTC(ctx context.Context, tokenID string, price, size float64) (string, string, error) {
	if c.privateKey == nil {
		return "", "", fmt.Errorf("order auth not configured")
	}

	makerAddress := c.address
	if c.proxyAddress != "" {
		makerAddress = c.proxyAddress
	}

	// Buying size shares at price: pay price*size USDC, receive size tokens.
	orderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   usdToRawAmount(price * size),
		TakerAmount:   usdToRawAmount(size),
		Side:          model.BUY,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.address,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return "", "", fmt.Errorf("build order: %w", err)
	}

	sideStr := "BUY"
	if signedOrder.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	jsonOrder := signedOrderJSON{
		Salt:          signedOrder.Salt.Int64(),
		Maker:         signedOrder.Maker.Hex(),
		Signer:        signedOrder.Signer.Hex(),
		Taker:         signedOrder.Taker.Hex(),
		TokenID:       signedOrder.TokenId.String(),
		MakerAmount:   signedOrder.MakerAmount.String(),
		TakerAmount:   signedOrder.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    signedOrder.Expiration.String(),
		Nonce:         signedOrder.Nonce.String(),
		FeeRateBps:    signedOrder.FeeRateBps.String(),
		SignatureType: int(signedOrder.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(signedOrder.Signature),
	}

	// "owner" is the API key, not the maker address.
	orderRequest := map[string]interface{}{
		"order":     jsonOrder,
		"owner":     c.apiKey,
		"orderType": "GTC",
	}

	reqBody, err := json.Marshal(orderRequest)
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}

	const requestPath = "/order"
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	signature, err := c.l2Signature(timestamp, http.MethodPost, requestPath, string(reqBody))
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestPath, strings.NewReader(string(reqBody)))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	// EOA address from the private key, not the proxy.
	req.Header.Set("POLY_ADDRESS", c.address)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		OrdersSubmitted.WithLabelValues("exception").Inc()
		return "", "", &types.APIError{Endpoint: requestPath, Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		OrdersSubmitted.WithLabelValues("rejected").Inc()
		return "", fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil
	}

	var orderResp orderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return "", "", fmt.Errorf("parse response: %w", err)
	}

	if orderResp.ErrorMsg != "" {
		OrdersSubmitted.WithLabelValues("rejected").Inc()
		return "", orderResp.ErrorMsg, nil
	}

	OrdersSubmitted.WithLabelValues("submitted").Inc()

	c.logger.Info("order-submitted",
		zap.String("order_id", orderResp.OrderID),
		zap.String("token_id", tokenID),
		zap.Float64("price", price),
		zap.Float64("size", size))

	return orderResp.OrderID, "", nil
}

// usdToRawAmount converts USD to the 6-decimal raw amount the exchange uses.
func usdToRawAmount(usd float64) string {
	return fmt.Sprintf("%d", int64(usd*1e6))
}

func (c *Client) l2Signature(timestamp, method, requestPath, body string) (string, error) {
	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + method + requestPath + body))

	return base64.URLEncoding.EncodeToString(h.Sum(nil)), nil
}
