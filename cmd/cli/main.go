// Command vg is an admin CLI client for the voicegate service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ---- http helpers ----

func request(ctx context.Context, method, url string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(out))
	}
	return out, nil
}

func printJSON(raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `vg CLI
Usage:
  vg -addr http://HOST:PORT <cmd> [args]

Commands:
  version
  identities                      (list enrolled identities)
  identity   -id <uuid>
  rm         -id <uuid>
  challenge  [-identity <uuid>]   (issue a liveness challenge)
  attempts   [-claimed <uuid>] [-limit n]
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	base := *addr + "/api/v1"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("vg %s (%s)\n", version, buildDate)

	case "identities":
		out, err := request(ctx, http.MethodGet, base+"/identities", nil)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "identity":
		fs := flag.NewFlagSet("identity", flag.ExitOnError)
		id := fs.String("id", "", "identity id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		out, err := request(ctx, http.MethodGet, base+"/identities/"+*id, nil)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "identity id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if _, err := request(ctx, http.MethodDelete, base+"/identities/"+*id, nil); err != nil {
			fail(err)
		}
		fmt.Println("deleted")

	case "challenge":
		fs := flag.NewFlagSet("challenge", flag.ExitOnError)
		identity := fs.String("identity", "", "bind challenge to identity id")
		_ = fs.Parse(flag.Args()[1:])

		body := map[string]any{}
		if *identity != "" {
			body["identity_id"] = *identity
		}
		out, err := request(ctx, http.MethodPost, base+"/challenges", body)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "attempts":
		fs := flag.NewFlagSet("attempts", flag.ExitOnError)
		claimed := fs.String("claimed", "", "filter by claimed identity id")
		limit := fs.Int("limit", 50, "max records")
		_ = fs.Parse(flag.Args()[1:])

		url := fmt.Sprintf("%s/attempts?limit=%d", base, *limit)
		if *claimed != "" {
			url += "&claimed_id=" + *claimed
		}
		out, err := request(ctx, http.MethodGet, url, nil)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	default:
		usage()
	}
}
