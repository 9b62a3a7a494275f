package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/client"
	"github.com/naveenspark/payline/pkg/domain"
)

// ErrUnexpectedResponse marks a 2xx body that matched none of the known envelopes.
var ErrUnexpectedResponse = errors.New("unexpected response shape")

// Shape names which envelope a response arrived in.
type Shape string

// Known envelopes.
const (
	// ShapeWrapped is {"success": true, "data": {...}}.
	ShapeWrapped Shape = "wrapped"
	// ShapeStatus is {"statusCode": 2xx, ...} with the payload at the top
	// level or under "data".
	ShapeStatus Shape = "status"
	// ShapeDirect is the bare payload.
	ShapeDirect Shape = "direct"
)

// LoginResult is the canonical outcome of a login, whatever envelope it came in.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
	// Lang is the supported language preference found in the response, or "".
	Lang  string
	Shape Shape
}

// TokenPair is the canonical outcome of a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Lang         string
	Shape        Shape
}

// candidate is one envelope interpretation: the nodes searched, in order,
// for payload fields.
type candidate struct {
	shape Shape
	nodes []gjson.Result
}

// candidates lists the interpretations of root in precedence order. An
// explicit failure marker (success:false, non-2xx statusCode) yields an error.
func candidates(root gjson.Result, fallback string) ([]candidate, error) {
	if s := root.Get("success"); s.Exists() && s.Type == gjson.False {
		return nil, rejected(root, http.StatusOK, fallback)
	}
	var out []candidate
	if s := root.Get("success"); s.Type == gjson.True {
		out = append(out, candidate{ShapeWrapped, []gjson.Result{root.Get("data")}})
	}
	if sc := root.Get("statusCode"); sc.Exists() {
		code := int(sc.Int())
		if code < 200 || code > 299 {
			return nil, rejected(root, code, fallback)
		}
		out = append(out, candidate{ShapeStatus, []gjson.Result{root, root.Get("data")}})
	}
	out = append(out, candidate{ShapeDirect, []gjson.Result{root}})
	return out, nil
}

func firstOf(nodes []gjson.Result, path string) gjson.Result {
	for _, n := range nodes {
		if v := n.Get(path); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// serverMessage extracts "message" as a string (lists are joined).
func serverMessage(root gjson.Result) string {
	msg := root.Get("message")
	if msg.IsArray() {
		var parts []string
		for _, m := range msg.Array() {
			parts = append(parts, m.String())
		}
		return strings.Join(parts, "; ")
	}
	if msg.Type == gjson.String {
		return msg.String()
	}
	return ""
}

func rejected(root gjson.Result, status int, fallback string) error {
	msg := serverMessage(root)
	if msg == "" {
		msg = fallback
	}
	if status <= 0 {
		status = http.StatusOK
	}
	return &client.APIError{Status: status, Message: msg}
}

func unexpected(root gjson.Result, fallback string) error {
	msg := serverMessage(root)
	if msg == "" {
		msg = fallback
	}
	return &client.APIError{Status: http.StatusOK, Message: msg, Err: ErrUnexpectedResponse}
}

func parseRoot(body []byte, fallback string) (gjson.Result, error) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return gjson.Result{}, &client.APIError{Status: http.StatusOK, Message: fallback, Err: ErrUnexpectedResponse}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, &client.APIError{Status: http.StatusOK, Message: fallback, Err: ErrUnexpectedResponse}
	}
	return root, nil
}

func decodeUser(node gjson.Result) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal([]byte(node.Raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// pickLang applies the precedence user.lang, then top-level lang, and keeps
// only supported codes.
func pickLang(user gjson.Result, nodes []gjson.Result) string {
	if code, ok := i18n.Parse(user.Get("lang").String()); ok {
		return code
	}
	if code, ok := i18n.Parse(firstOf(nodes, "lang").String()); ok {
		return code
	}
	return ""
}

// NormalizeLogin maps every known /auth/login envelope to one LoginResult:
//
//	wrapped: {"success": true, "data": {"access_token", "refresh_token", "user", "lang"?}}
//	status:  {"statusCode": 2xx, "user", "access_token", "refresh_token"} (tokens may sit under "data")
//	direct:  {"access_token", "refresh_token", "user", "lang"?}
//
// access_token and a user object are required; refresh_token is optional.
func NormalizeLogin(body []byte) (*LoginResult, error) {
	const fallback = "unexpected login response"
	root, err := parseRoot(body, fallback)
	if err != nil {
		return nil, err
	}
	cands, err := candidates(root, "login failed")
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		access := firstOf(c.nodes, "access_token")
		userNode := firstOf(c.nodes, "user")
		if access.Type != gjson.String || access.String() == "" || !userNode.IsObject() {
			continue
		}
		user, err := decodeUser(userNode)
		if err != nil {
			continue
		}
		return &LoginResult{
			AccessToken:  access.String(),
			RefreshToken: firstOf(c.nodes, "refresh_token").String(),
			User:         user,
			Lang:         pickLang(userNode, append(append([]gjson.Result{}, c.nodes...), root)),
			Shape:        c.shape,
		}, nil
	}
	return nil, unexpected(root, fallback)
}

// NormalizeRefresh maps every known /auth/refresh-token envelope to a TokenPair:
//
//	wrapped: {"success": true, "data": {"access_token", "refresh_token"?, "lang"?}}
//	status:  {"statusCode": 2xx, "data": {...}} or {"statusCode": 2xx, "access_token", ...}
//	flat:    {"access_token", "refresh_token"?, "lang"?}
func NormalizeRefresh(body []byte) (*TokenPair, error) {
	const fallback = "unexpected refresh response"
	root, err := parseRoot(body, fallback)
	if err != nil {
		return nil, err
	}
	cands, err := candidates(root, "refresh failed")
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		access := firstOf(c.nodes, "access_token")
		if access.Type != gjson.String || access.String() == "" {
			continue
		}
		nodes := append(append([]gjson.Result{}, c.nodes...), root)
		lang, _ := i18n.Parse(firstOf(nodes, "lang").String())
		if lang == "" {
			lang, _ = i18n.Parse(firstOf(nodes, "user.lang").String())
		}
		return &TokenPair{
			AccessToken:  access.String(),
			RefreshToken: firstOf(c.nodes, "refresh_token").String(),
			Lang:         lang,
			Shape:        c.shape,
		}, nil
	}
	return nil, unexpected(root, fallback)
}

// NormalizeUser maps every known profile envelope to a user:
//
//	wrapped: {"success": true, "data": {"user": {...}}} or {"success": true, "data": {...user}}
//	status:  {"statusCode": 2xx, "user": {...}} (or under "data")
//	direct:  {...user} with an "id" or "email"
func NormalizeUser(body []byte) (*domain.User, Shape, error) {
	const fallback = "unexpected profile response"
	root, err := parseRoot(body, fallback)
	if err != nil {
		return nil, "", err
	}
	cands, err := candidates(root, "profile request failed")
	if err != nil {
		return nil, "", err
	}
	for _, c := range cands {
		node := firstOf(c.nodes, "user")
		if !node.IsObject() {
			node = gjson.Result{}
			for _, n := range c.nodes {
				if n.IsObject() && (n.Get("id").Exists() || n.Get("email").Exists()) {
					node = n
					break
				}
			}
		}
		if !node.IsObject() {
			continue
		}
		user, err := decodeUser(node)
		if err != nil {
			continue
		}
		return user, c.shape, nil
	}
	return nil, "", unexpected(root, fallback)
}
