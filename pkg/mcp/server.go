// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package mcp exposes the chunk planners as Model Context Protocol tools.
//
// chunk_sizes and peripheral_configs are pure computations. plan_operation
// runs a full planning pass against the configured oracle and, when a store
// is configured, persists the result.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/observability"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/perf"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Planner *planner.Planner // optional; plan_operation is only registered with one
	Store   *store.Store     // optional; plans are saved when set
	Version string
	Logger  *slog.Logger
}

// NewServer creates an MCP server with the planning tools registered.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	s := server.NewMCPServer(
		"chunkplan",
		ver,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	registerChunkSizesTool(s)
	registerPeripheralConfigsTool(s)
	if cfg.Planner != nil {
		// mcp-go dispatches handlers concurrently; a Planner owns one random
		// source, so passes run one at a time.
		registerPlanTool(s, cfg.Planner, cfg.Store, perf.NewRateLimiter(1), logger)
	}
	return s
}

func registerChunkSizesTool(s *server.MCPServer) {
	tool := mcp.NewTool("chunk_sizes",
		mcp.WithDescription("Propose candidate chunk sizes (in words) for splitting a document field, from the word counts of a data sample."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("sample",
			mcp.Required(),
			mcp.Description("Data sample as a JSON array of records"),
		),
		mcp.WithString("split_key",
			mcp.Required(),
			mcp.Description("Record field holding the document text"),
		),
		mcp.WithNumber("count",
			mcp.Description(fmt.Sprintf("Number of sizes to propose (default: %d)", planner.DefaultNumChunkSizes)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("sample")
		if err != nil {
			return mcp.NewToolResultError("sample is required"), nil
		}
		key, err := req.RequireString("split_key")
		if err != nil || key == "" {
			return mcp.NewToolResultError("split_key is required"), nil
		}
		count := planner.DefaultNumChunkSizes
		if c, err := req.RequireFloat("count"); err == nil && c > 0 {
			count = int(c)
		}

		sample, err := pipeline.ParseJSON([]byte(raw))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sample: %v", err)), nil
		}

		return jsonResult(map[string]any{
			"split_key":   key,
			"chunk_sizes": planner.ChunkSizes(key, sample, count),
		})
	})
}

func registerPeripheralConfigsTool(s *server.MCPServer) {
	tool := mcp.NewTool("peripheral_configs",
		mcp.WithDescription("Enumerate the surrounding-context configurations worth evaluating for a chunk size and average document size."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("chunk_size",
			mcp.Required(),
			mcp.Description("Chunk size in words"),
		),
		mcp.WithNumber("avg_doc_size",
			mcp.Required(),
			mcp.Description("Average document size in words"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chunk, err := req.RequireFloat("chunk_size")
		if err != nil {
			return mcp.NewToolResultError("chunk_size is required"), nil
		}
		avg, err := req.RequireFloat("avg_doc_size")
		if err != nil {
			return mcp.NewToolResultError("avg_doc_size is required"), nil
		}
		return jsonResult(planner.PeripheralConfigs(int(chunk), int(avg)))
	})
}

func registerPlanTool(s *server.MCPServer, p *planner.Planner, st *store.Store, limiter *perf.RateLimiter, logger *slog.Logger) {
	tool := mcp.NewTool("plan_operation",
		mcp.WithDescription("Plan how a document-level operation is split into chunk-level work: split key, per-chunk prompt, metadata and context needs, and candidate chunk sizes."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Operation definition as YAML or JSON (name, prompt, output.schema)"),
		),
		mcp.WithString("sample",
			mcp.Required(),
			mcp.Description("Data sample as a JSON array of records"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawOp, err := req.RequireString("operation")
		if err != nil {
			return mcp.NewToolResultError("operation is required"), nil
		}
		rawSample, err := req.RequireString("sample")
		if err != nil {
			return mcp.NewToolResultError("sample is required"), nil
		}

		ops, err := pipeline.ParseOperations([]byte(rawOp), "operation")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %v", err)), nil
		}
		if len(ops) != 1 {
			return mcp.NewToolResultError(fmt.Sprintf("expected one operation, got %d", len(ops))), nil
		}
		sample, err := pipeline.ParseJSON([]byte(rawSample))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sample: %v", err)), nil
		}

		var plan *planner.Plan
		err = limiter.Do(ctx, func() error {
			var planErr error
			plan, planErr = p.Plan(ctx, ops[0], sample)
			return planErr
		})
		if err != nil {
			logger.Warn("plan_operation failed", "operation", ops[0].Name, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
		}

		if st != nil {
			if err := st.Save(ctx, plan); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("saving plan: %v", err)), nil
			}
		}
		return jsonResult(plan)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
