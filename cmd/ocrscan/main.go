// Command ocrscan submits a directory of images to a running ocrd instance
// and prints the extracted text per file. Submissions run concurrently up to
// a configurable limit, mirroring how batch clients drive the server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

type response struct {
	ImageID      string  `json:"image_id"`
	Filename     string  `json:"filename"`
	Text         string  `json:"text"`
	Code         string  `json:"code"`
	ProcessingMs float64 `json:"processing_ms"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "ocrd base URL")
	batch := flag.String("batch", "", "batch id (default: random)")
	concurrency := flag.Int("c", 4, "concurrent submissions")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: ocrscan [flags] <dir>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	batchID := *batch
	if batchID == "" {
		batchID = uuid.NewString()
	}

	files, err := listImages(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocrscan: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "ocrscan: no images found")
		os.Exit(1)
	}

	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for i, path := range files {
		wg.Add(1)
		go func(id int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := submit(*addr, batchID, id, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
				return
			}
			fmt.Printf("%s (%.1f ms): %s\n", res.Filename, res.ProcessingMs, res.Text)
		}(i, path)
	}
	wg.Wait()
	if failed > 0 {
		os.Exit(1)
	}
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func submit(addr, batchID string, imageID int, path string) (*response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("batch_id", batchID)
	q.Set("image_id", fmt.Sprint(imageID))
	q.Set("filename", filepath.Base(path))
	u := strings.TrimRight(addr, "/") + "/v1/ocr?" + q.Encode()

	resp, err := http.Post(u, "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, e.Error)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
