package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"quoting-engine-go/order"
)

// RESTClient talks to a Primary-style trading API: header token auth, order
// entry via newSingleOrder with cancelPrevious, cancellation by client order
// id. HTTPClient is injectable so tests can point it at httptest.
type RESTClient struct {
	BaseURL    string
	Account    string
	Symbol     string
	HTTPClient *http.Client
	Limiter    RateLimiter

	mu    sync.RWMutex
	token string
}

// NewDefaultHTTPClient returns the client used when none is injected.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// Login obtains a session token. The venue returns it in the X-Auth-Token
// response header.
func (c *RESTClient) Login(user, password string) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/auth/getToken", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Username", user)
	req.Header.Set("X-Password", password)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("login status %d", resp.StatusCode)
	}
	token := resp.Header.Get("X-Auth-Token")
	if token == "" {
		return fmt.Errorf("login response missing X-Auth-Token")
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// Token returns the current session token.
func (c *RESTClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type sendOrderResp struct {
	Status string `json:"status"`
	Order  struct {
		ClientID string `json:"clientId"`
	} `json:"order"`
}

// SendOrder submits a day limit order with cancelPrevious semantics and
// returns the PENDING_NEW entry carrying the assigned client order id.
func (c *RESTClient) SendOrder(side order.Side, price float64, size int64) (order.Entry, error) {
	if c == nil || c.HTTPClient == nil {
		return order.Entry{}, fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
	q := url.Values{}
	q.Set("marketId", "ROFX")
	q.Set("symbol", c.Symbol)
	q.Set("side", string(side))
	q.Set("orderQty", strconv.FormatInt(size, 10))
	q.Set("price", strconv.FormatFloat(price, 'f', -1, 64))
	q.Set("ordType", "LIMIT")
	q.Set("timeInForce", "DAY")
	q.Set("account", c.Account)
	q.Set("cancelPrevious", "true")
	var sr sendOrderResp
	if err := c.get("/rest/order/newSingleOrder", q, &sr); err != nil {
		return order.Entry{}, err
	}
	if sr.Status != "OK" || sr.Order.ClientID == "" {
		return order.Entry{}, fmt.Errorf("order rejected at entry: status=%s", sr.Status)
	}
	return order.Entry{
		ClientOrderID: sr.Order.ClientID,
		Side:          side,
		Price:         price,
		Size:          size,
		Status:        order.StatusPendingNew,
	}, nil
}

type cancelResp struct {
	Status string `json:"status"`
}

// CancelOrder requests cancellation; the outcome arrives as a CANCELLED or
// REJECTED report on the stream.
func (c *RESTClient) CancelOrder(clientOrderID string) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
	q := url.Values{}
	q.Set("clOrdId", clientOrderID)
	q.Set("proprietary", "api")
	var cr cancelResp
	if err := c.get("/rest/order/cancelById", q, &cr); err != nil {
		return err
	}
	if cr.Status != "OK" {
		return fmt.Errorf("cancel rejected at entry: status=%s", cr.Status)
	}
	return nil
}

func (c *RESTClient) get(path string, q url.Values, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Auth-Token", c.Token())
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
