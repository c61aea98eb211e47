package listener

import (
	"context"
	"testing"
	"time"
)

func TestRendezvous_SendRecvRoundTrip(t *testing.T) {
	ln, err := Bind("listener-test-roundtrip")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer ln.Close()

	acceptErr := make(chan error, 1)
	var server *Connection
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		c, err := ln.Accept(ctx)
		server = c
		acceptErr <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, err := Dial(ctx, "listener-test-roundtrip")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := <-acceptErr; err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer server.Close()

	if err := client.Send([]byte("hello server")); err != nil {
		t.Fatalf("client.Send: %v", err)
	}
	recvCtx, recvCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer recvCancel()
	got, err := server.Recv(recvCtx)
	if err != nil {
		t.Fatalf("server.Recv: %v", err)
	}
	if string(got) != "hello server" {
		t.Fatalf("got %q, want %q", got, "hello server")
	}

	if err := server.Send([]byte("hello client")); err != nil {
		t.Fatalf("server.Send: %v", err)
	}
	got, err = client.Recv(recvCtx)
	if err != nil {
		t.Fatalf("client.Recv: %v", err)
	}
	if string(got) != "hello client" {
		t.Fatalf("got %q, want %q", got, "hello client")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"simple":           "simple",
		"with/slash":       "with_slash",
		"with space!":      "with_space_",
		"":                 "conn",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
