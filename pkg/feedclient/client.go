package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/feed"
)

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

func NewClientOpts(baseURL string, timeout time.Duration) ClientOptions {
	return ClientOptions{
		BaseURL: baseURL,
		Timeout: timeout,
	}
}

var DefaultClientOpts = ClientOptions{
	BaseURL: "http://localhost:8080/api/v1",
	Timeout: 5 * time.Second,
}

// NetworkError is returned when a round trip to the feed API failed,
// either on the transport level or with a non-2xx response.
type NetworkError struct {
	URL string
	// StatusCode is 0 if no response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %v: %v: %v", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GET %v: %v", e.URL, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// State is the loading and error state of the client, for a view to render.
type State struct {
	// Loading is true as long as at least one call is in flight.
	Loading bool
	// Err is the message of the last failed call. It's cleared when a new call starts.
	Err string
}

// Client fetches the home feed, section pages and video pages from the feed API.
// Every call is a single round trip. There are no retries and no caching,
// and concurrent identical calls aren't de-duplicated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	state    State
	inFlight int
	lock     sync.RWMutex
}

func NewClient(opts ClientOptions, logger *zap.Logger) (*Client, error) {
	// Precondition check
	if opts.BaseURL == "" {
		return nil, errors.New("opts.BaseURL must not be empty")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("opts.BaseURL is invalid: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}, nil
}

// State returns the current loading and error state.
func (c *Client) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// FetchHome fetches the home feed.
func (c *Client) FetchHome(ctx context.Context) (feed.HomePayload, error) {
	var payload feed.HomePayload
	err := c.get(ctx, c.baseURL+"/homePageContents", &payload)
	return payload, err
}

// FetchSection fetches the first page of a section, addressed by slug or position.
func (c *Client) FetchSection(ctx context.Context, sectionName string) (feed.SectionPayload, error) {
	return c.FetchSectionPage(ctx, sectionName, 0, 0)
}

// FetchSectionPage fetches a specific page of a section.
// Zero values leave the choice to the server.
func (c *Client) FetchSectionPage(ctx context.Context, sectionName string, page, pageSize int) (feed.SectionPayload, error) {
	reqURL := c.baseURL + "/sectionPage/" + url.PathEscape(sectionName)
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	var payload feed.SectionPayload
	err := c.get(ctx, reqURL, &payload)
	return payload, err
}

// FetchVideo fetches the video page of a video within a section.
func (c *Client) FetchVideo(ctx context.Context, sectionName, videoID string) (feed.VideoPayload, error) {
	var payload feed.VideoPayload
	reqURL := c.baseURL + "/homePageContents/" + url.PathEscape(sectionName) + "/videos/" + url.PathEscape(videoID)
	err := c.get(ctx, reqURL, &payload)
	return payload, err
}

func (c *Client) get(ctx context.Context, reqURL string, target interface{}) error {
	c.start()
	err := c.doGet(ctx, reqURL, target)
	if err != nil {
		c.logger.Warn("Couldn't fetch feed data", zap.Error(err), zap.String("url", reqURL))
	}
	c.finish(err)
	return err
}

func (c *Client) doGet(ctx context.Context, reqURL string, target interface{}) error {
	c.logger.Debug("Fetching feed data...", zap.String("url", reqURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &NetworkError{URL: reqURL, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{URL: reqURL, Message: err.Error(), Err: err}
	}
	defer res.Body.Close()
	resBody, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return &NetworkError{URL: reqURL, StatusCode: res.StatusCode, Message: "Couldn't read response body: " + err.Error(), Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := http.StatusText(res.StatusCode)
		if errMsg := gjson.GetBytes(resBody, "error"); errMsg.Exists() && errMsg.String() != "" {
			msg = errMsg.String()
		}
		return &NetworkError{URL: reqURL, StatusCode: res.StatusCode, Message: msg}
	}
	if err = json.Unmarshal(resBody, target); err != nil {
		return &NetworkError{URL: reqURL, StatusCode: res.StatusCode, Message: "Couldn't unmarshal response body: " + err.Error(), Err: err}
	}
	return nil
}

func (c *Client) start() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inFlight++
	c.state = State{Loading: true}
}

func (c *Client) finish(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inFlight--
	c.state.Loading = c.inFlight > 0
	if err != nil {
		c.state.Err = err.Error()
	}
}
