package observe

import "testing"

func TestNewRequestMeta(t *testing.T) {
	a := NewRequestMeta("get", "https://api.example.com/posts")
	b := NewRequestMeta("get", "https://api.example.com/posts")

	if a.Method != "GET" {
		t.Errorf("Method = %q, want GET", a.Method)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
}

func TestRequestMeta_Accessors(t *testing.T) {
	tests := []struct {
		name      string
		meta      RequestMeta
		wantSpan  string
		wantHost  string
		wantRoute string
	}{
		{
			name:      "absolute",
			meta:      RequestMeta{Method: "get", URL: "https://user:pw@api.example.com:8443/posts/1?x=1#frag"},
			wantSpan:  "http.client.GET",
			wantHost:  "api.example.com:8443",
			wantRoute: "https://api.example.com:8443/posts/1",
		},
		{
			name:      "relative",
			meta:      RequestMeta{Method: "DELETE", URL: "/posts/1"},
			wantSpan:  "http.client.DELETE",
			wantHost:  "",
			wantRoute: "/posts/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.wantSpan {
				t.Errorf("SpanName() = %q, want %q", got, tt.wantSpan)
			}
			if got := tt.meta.Host(); got != tt.wantHost {
				t.Errorf("Host() = %q, want %q", got, tt.wantHost)
			}
			if got := tt.meta.Route(); got != tt.wantRoute {
				t.Errorf("Route() = %q, want %q", got, tt.wantRoute)
			}
		})
	}
}
