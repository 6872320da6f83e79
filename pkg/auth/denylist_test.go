package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the handful of RESP2 commands the denylist sends.
type fakeRedis struct {
	ln net.Listener

	mu   sync.Mutex
	keys map[string]time.Duration
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeRedis{ln: ln, keys: map[string]time.Duration{}}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return f
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil {
		return nil, err
	}
	args := make([]string, n)
	for i := range args {
		if line, err = r.ReadString('\n'); err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args[i] = string(buf[:size])
	}
	return args, nil
}

func (f *fakeRedis) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch strings.ToUpper(args[0]) {
		case "SET":
			ttl := time.Duration(0)
			if len(args) == 5 {
				n, _ := strconv.Atoi(args[4])
				switch strings.ToUpper(args[3]) {
				case "EX":
					ttl = time.Duration(n) * time.Second
				case "PX":
					ttl = time.Duration(n) * time.Millisecond
				}
			}
			f.mu.Lock()
			f.keys[args[1]] = ttl
			f.mu.Unlock()
			reply = "+OK\r\n"
		case "EXISTS":
			f.mu.Lock()
			_, ok := f.keys[args[1]]
			f.mu.Unlock()
			reply = ":0\r\n"
			if ok {
				reply = ":1\r\n"
			}
		default:
			reply = fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func (f *fakeRedis) ttl(key string) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ttl, ok := f.keys[key]
	return ttl, ok
}

func TestRedisDenylist(t *testing.T) {
	f := startFakeRedis(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:            f.ln.Addr().String(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	d := NewRedisDenylist(rdb)

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, ok := f.ttl(revokedKey("jti-1"))
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	// Already expired tokens are never stored.
	require.NoError(t, d.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	_, ok = f.ttl(revokedKey("jti-2"))
	assert.False(t, ok)
}

func TestTokens_RevokeWithRedis(t *testing.T) {
	f := startFakeRedis(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:            f.ln.Addr().String(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	tokens := NewTokens("test-secret", time.Hour, NewRedisDenylist(rdb))
	tok, err := tokens.Generate("u1", "ada@iuget.cm")
	require.NoError(t, err)

	claims, err := tokens.Validate(ctx, tok)
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(ctx, claims))

	_, err = tokens.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestRedisDenylist_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: time.Second})
	t.Cleanup(func() { rdb.Close() })

	_, err = NewRedisDenylist(rdb).IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}
