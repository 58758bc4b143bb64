package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// Exercises a running `simmatch serve` instance.
// Usage: go run scripts/api_demo.go [base-url]

type recommendRequest struct {
	Spec string `json:"spec"`
	Top  int    `json:"top,omitempty"`
}

type recommendResponse struct {
	Query   string `json:"query"`
	Results []struct {
		ID               string  `json:"id"`
		Title            string  `json:"title"`
		CombinedScore    float64 `json:"combinedScore"`
		SemanticScore    float64 `json:"semanticScore"`
		PedagogicalScore float64 `json:"pedagogicalScore"`
	} `json:"results"`
}

const demoSpec = `Type: microsim
Learning Objective: Students predict how pendulum length changes the period
Bloom Level: Apply
Bloom Verb: predict
Visual Elements: swinging pendulum, period readout
Interactive Controls: length slider, start and pause buttons
Implementation: p5.js
Topic: simple harmonic motion
Subject: Physics`

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	raw, code, err := get(baseURL + "/health")
	if err != nil {
		panic(err)
	}
	fmt.Println("health", code, raw)

	raw, code, err = postJSON(baseURL+"/recommend", recommendRequest{Spec: demoSpec, Top: 3})
	if err != nil {
		panic(err)
	}
	fmt.Println("recommend", code)
	var rec recommendResponse
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || code != http.StatusOK {
		fmt.Println(raw)
		return
	}
	fmt.Println("query:", rec.Query)
	for i, r := range rec.Results {
		fmt.Printf("%d. %.4f (semantic %.4f, pedagogical %.4f) %s\n", i+1, r.CombinedScore, r.SemanticScore, r.PedagogicalScore, r.Title)
	}
	if len(rec.Results) == 0 {
		return
	}

	raw, code, err = get(baseURL + "/similar?top=3&id=" + url.QueryEscape(rec.Results[0].ID))
	if err != nil {
		panic(err)
	}
	fmt.Println("similar", code, raw)

	// Blank specifications are rejected with 400.
	raw, code, err = postJSON(baseURL+"/recommend", recommendRequest{Spec: "  "})
	if err != nil {
		panic(err)
	}
	fmt.Println("blank", code, raw)
}

func get(u string) (string, int, error) {
	resp, err := http.Get(u)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode, nil
}

func postJSON(u string, payload any) (string, int, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}
	resp, err := http.Post(u, "application/json", bytes.NewBuffer(b))
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode, nil
}
