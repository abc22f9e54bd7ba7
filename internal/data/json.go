package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"pfline/internal/model"
)

// LoadGridStatusJSON reads a saved GridStatus response from disk.
func LoadGridStatusJSON(path string) (*model.GridStatusLMPResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	resp, err := DecodeGridStatusJSON(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return resp, nil
}

func DecodeGridStatusJSON(r io.Reader) (*model.GridStatusLMPResponse, error) {
	var resp model.GridStatusLMPResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GroupByLocation splits a response into location-keyed slices.
func GroupByLocation(resp *model.GridStatusLMPResponse) map[string][]model.LMPInterval {
	out := map[string][]model.LMPInterval{}
	if resp == nil {
		return out
	}
	for _, it := range resp.Data {
		out[it.Location] = append(out[it.Location], it)
	}
	return out
}
