package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// httpCmd drives the server's loopback admin routes.
func httpCmd(name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	pos := fs.String("pos", "", "spawn position x,y,z")
	entity := fs.Uint("entity", 0, "entity id to despawn")
	_ = fs.Parse(args)

	req, err := adminRequest(strings.TrimSpace(*baseURL), name, *pos, uint32(*entity))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func adminRequest(base, name, pos string, entity uint32) (*http.Request, error) {
	base = strings.TrimRight(base, "/") + "/admin/v1"
	switch name {
	case "state", "intents":
		return http.NewRequest(http.MethodGet, base+"/"+name, nil)
	case "snapshot":
		return http.NewRequest(http.MethodPost, base+"/snapshot", nil)
	case "spawn":
		p, err := parseVec3(pos)
		if err != nil {
			return nil, fmt.Errorf("bad -pos: %w", err)
		}
		body, _ := json.Marshal(map[string]any{"pos": p})
		req, err := http.NewRequest(http.MethodPost, base+"/entities", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	case "despawn":
		if entity == 0 {
			return nil, fmt.Errorf("missing -entity")
		}
		return http.NewRequest(http.MethodDelete, base+"/entities/"+strconv.FormatUint(uint64(entity), 10), nil)
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func parseVec3(s string) ([3]float64, error) {
	var v [3]float64
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
