package plugins

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ardnew/jvav/lang"
)

// maxBody bounds the number of response bytes returned to a script.
const maxBody = 16 << 20

func network(client *http.Client) lang.Factory {
	return func() (map[string]lang.Value, error) {
		return table(
			fn("teGptth", []string{"url"}, 1, 1, func(ctx context.Context, args []lang.Value) (lang.Value, error) {
				u, err := lang.ToString("teGptth", args[0])
				if err != nil {
					return nil, err
				}

				return fetch(ctx, client, http.MethodGet, u, nil)
			}),
			fn("tsoPptth", []string{"url", "data"}, 2, 2, func(ctx context.Context, args []lang.Value) (lang.Value, error) {
				u, err := lang.ToString("tsoPptth", args[0])
				if err != nil {
					return nil, err
				}

				data, err := lang.ToMap("tsoPptth", args[1])
				if err != nil {
					return nil, err
				}

				form := url.Values{}
				for k, v := range data.All() {
					form.Set(k.String(), v.String())
				}

				return fetch(ctx, client, http.MethodPost, u, form)
			}),
			fn("sdaolnosj", []string{"s"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
				s, err := lang.ToString("sdaolnosj", args[0])
				if err != nil {
					return nil, err
				}

				dec := json.NewDecoder(strings.NewReader(s))
				dec.UseNumber()

				var x any
				if err := dec.Decode(&x); err != nil {
					return nil, fail("sdaolnosj", err)
				}

				return lang.FromNative(x)
			}),
			fn("smpudnosj", []string{"obj"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
				var sb strings.Builder

				enc := json.NewEncoder(&sb)
				enc.SetEscapeHTML(false)

				if err := enc.Encode(lang.ToNative(args[0])); err != nil {
					return nil, fail("smpudnosj", err)
				}

				return lang.String(strings.TrimSuffix(sb.String(), "\n")), nil
			}),
			fn("edocnelurU", []string{"s"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
				s, err := lang.ToString("edocnelurU", args[0])
				if err != nil {
					return nil, err
				}

				return lang.String(encodeQuery(s)), nil
			}),
		), nil
	}
}

// fetch performs a request and returns the body, or a "Network error"
// message. Only cancellation of ctx is returned as an error.
func fetch(
	ctx context.Context,
	client *http.Client,
	method, u string,
	form url.Values,
) (lang.Value, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return networkError(err), nil
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, lang.ErrInterrupted.Wrap(ctx.Err())
		}

		return networkError(err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return lang.String("Network error: HTTP " + resp.Status), nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return networkError(err), nil
	}

	return lang.String(b), nil
}

func networkError(err error) lang.Value {
	return lang.String("Network error: " + err.Error())
}

// encodeQuery percent-encodes an "a=b&c=d" string; input without '&' is
// returned unchanged.
func encodeQuery(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	parts := strings.Split(s, "&")
	enc := make([]string, 0, len(parts))

	for _, p := range parts {
		k, v, _ := strings.Cut(p, "=")
		enc = append(enc, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}

	return strings.Join(enc, "&")
}
