package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewHTTPClient_Config(t *testing.T) {
	c := newHTTPClient(7 * time.Second)
	if c.Timeout != 7*time.Second {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.Proxy == nil {
		t.Fatalf("expected proxy from environment")
	}
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
}
