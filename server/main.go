// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the media studio backend server.
//
// The application runs a Gin web server exposing the generation
// workflows as a REST API: multi-scene video runs, the image studio
// (generate, edit, animate), grounded search, the artifact library, and
// a websocket bridge for the realtime voice session. The server is
// instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// Functions:
//   - main: Sets up the server, routes, state and graceful shutdown.
//   - RunRouter: Generation run lifecycle (start, poll, results, save,
//     export).
//   - StudioRouter: Image generation, editing, and animation.
//   - SearchRouter: Web-grounded question answering.
//   - LibraryRouter: Library listing and signed streaming URLs.
//   - CatalogRouter: Static voice/template/pacing catalogs.
//   - UploadRouter: Still-image uploads for the studio.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/workflow"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
	"github.com/vidstudio/gcp-go-media-studio/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("media-studio-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		RunRouter(apiV1)
		StudioRouter(apiV1)
		SearchRouter(apiV1)
		LibraryRouter(apiV1)
		CatalogRouter(apiV1)
		UploadRouter(apiV1)
		LiveRouter(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// startRunRequest is the JSON body for starting a generation run.
// Catalog entries are referenced by ID and resolved server-side.
type startRunRequest struct {
	Scenes []struct {
		ID     string `json:"id"`
		Prompt string `json:"prompt"`
	} `json:"scenes"`
	AspectRatio string   `json:"aspect_ratio"`
	TemplateID  string   `json:"template_id"`
	PacingID    string   `json:"pacing_id"`
	VoiceID     string   `json:"voice_id"`
	Overlays    []string `json:"overlays"`
}

// toModel resolves catalog references and filters empty scenes.
func (r *startRunRequest) toModel() *model.GenerationRequest {
	request := &model.GenerationRequest{
		AspectRatio: r.AspectRatio,
		Template:    model.FindTemplate(model.DefaultTemplates, r.TemplateID),
		Pacing:      model.FindPacing(model.DefaultPacingOptions, r.PacingID),
		Voice:       model.FindVoice(model.DefaultVoices, r.VoiceID),
	}
	for _, s := range r.Scenes {
		if strings.TrimSpace(s.Prompt) == "" {
			continue
		}
		scene := &model.Scene{ID: s.ID, Prompt: s.Prompt}
		if scene.ID == "" {
			scene = model.NewScene(s.Prompt)
		}
		request.Scenes = append(request.Scenes, scene)
	}
	for _, text := range r.Overlays {
		if text == "" {
			continue
		}
		request.Overlays = append(request.Overlays, model.NewTextOverlay(text))
	}
	return request
}

// runSnapshot is the poll response for a generation run.
func runSnapshot(run *model.GenerationRun) gin.H {
	clips := run.Clips()
	clipViews := make([]gin.H, 0, len(clips))
	for _, clip := range clips {
		clipViews = append(clipViews, gin.H{"id": clip.ID, "scene_id": clip.SceneID})
	}
	return gin.H{
		"id":            run.ID(),
		"status":        run.Status().String(),
		"progress":      run.Progress(),
		"message":       run.Message(),
		"clips":         clipViews,
		"has_voiceover": run.Voiceover() != nil,
		"overlays":      run.Overlays(),
	}
}

// RunRouter sets up the generation run lifecycle endpoints:
//   - POST /runs: Creates an idle run.
//   - POST /runs/:id/start: Starts generating; a second start while the
//     run is in flight is a no-op.
//   - GET /runs/:id: Polls status, progress, and results.
//   - GET /runs/:id/clips/:clip_id: Streams one generated clip.
//   - GET /runs/:id/voiceover: Streams the voiceover WAV.
//   - GET /runs/:id/export/:clip_id: Downloads a clip under the export
//     filename and container.
//   - POST /runs/:id/save: Uploads the run's artifacts to the library.
func RunRouter(r *gin.RouterGroup) {
	runs := r.Group("/runs")
	{
		runs.POST("", func(c *gin.Context) {
			run := state.newRun()
			c.JSON(http.StatusCreated, gin.H{"id": run.ID()})
		})

		runs.POST("/:id/start", func(c *gin.Context) {
			run := state.getRun(c.Param("id"))
			if run == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			var body startRunRequest
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			request := body.toModel()
			if len(request.Scenes) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "at least one non-empty scene is required"})
				return
			}
			// A duplicate start is a no-op inside the workflow; leave the
			// in-flight run's annotations alone too.
			if run.Status() != model.RunGenerating {
				run.SetOverlays(request.Overlays)
			}

			// The workflow outlives the request, so it runs on a detached
			// context; the run registry is how the caller observes it.
			wfCtx := cor.NewBaseContext()
			wfCtx.SetContext(context.Background())
			wfCtx.Add(commands.GetGenerationRequestParameterName(), request)
			wfCtx.Add(workflow.GetGenerationRunParameterName(), run)
			go state.sceneWorkflow.Execute(wfCtx)

			c.JSON(http.StatusAccepted, runSnapshot(run))
		})

		runs.GET("/:id", func(c *gin.Context) {
			run := state.getRun(c.Param("id"))
			if run == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusOK, runSnapshot(run))
		})

		runs.GET("/:id/clips/:clip_id", func(c *gin.Context) {
			clip := findClip(c)
			if clip == nil {
				return
			}
			c.Data(http.StatusOK, clip.Artifact.MIMEType, clip.Artifact.Data)
		})

		runs.GET("/:id/voiceover", func(c *gin.Context) {
			run := state.getRun(c.Param("id"))
			if run == nil || run.Voiceover() == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "voiceover not available"})
				return
			}
			vo := run.Voiceover()
			c.Data(http.StatusOK, vo.MIMEType, vo.Data)
		})

		runs.GET("/:id/export/:clip_id", func(c *gin.Context) {
			clip := findClip(c)
			if clip == nil {
				return
			}
			aspectRatio := c.DefaultQuery("aspect_ratio", "16:9")
			export := state.exportService.BuildExport(clip.Artifact, aspectRatio, c.Query("format"))
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
			c.Data(http.StatusOK, export.ContentType, export.Artifact.Data)
		})

		runs.POST("/:id/save", func(c *gin.Context) {
			run := state.getRun(c.Param("id"))
			if run == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			if run.Status() != model.RunSuccess {
				c.JSON(http.StatusConflict, gin.H{"error": "run has no results to save"})
				return
			}
			var body struct {
				Title       string `json:"title"`
				AspectRatio string `json:"aspect_ratio"`
			}
			_ = c.ShouldBindJSON(&body)

			var uris []string
			for i, clip := range run.Clips() {
				uri, err := saveArtifact(c, &commands.SaveRequest{
					RunID:       run.ID(),
					Kind:        "clip",
					Title:       body.Title,
					AspectRatio: body.AspectRatio,
					Sequence:    i + 1,
					Artifact:    clip.Artifact,
				})
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				uris = append(uris, uri)
			}
			if vo := run.Voiceover(); vo != nil {
				uri, err := saveArtifact(c, &commands.SaveRequest{
					RunID:       run.ID(),
					Kind:        "voiceover",
					Title:       body.Title,
					AspectRatio: body.AspectRatio,
					Artifact:    vo,
				})
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				uris = append(uris, uri)
			}
			c.JSON(http.StatusOK, gin.H{"saved": uris})
		})
	}
}

// findClip resolves the :id/:clip_id pair, writing the error response
// itself when the lookup fails.
func findClip(c *gin.Context) *model.Clip {
	run := state.getRun(c.Param("id"))
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil
	}
	clipID := c.Param("clip_id")
	for _, clip := range run.Clips() {
		if clip.ID == clipID {
			return clip
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "clip not found"})
	return nil
}

// saveArtifact runs the library save workflow for one artifact and
// returns the GCS URI it landed at.
func saveArtifact(c *gin.Context, req *commands.SaveRequest) (string, error) {
	saveCtx := cor.NewBaseContext()
	saveCtx.SetContext(c.Request.Context())
	saveCtx.Add(commands.GetSaveRequestParameterName(), req)
	state.saveWorkflow.Execute(saveCtx)
	if saveCtx.HasErrors() {
		for _, err := range saveCtx.GetErrors() {
			return "", err
		}
	}
	// The chain pipes each command's output forward, so the final URI
	// sits at the pipe input slot once the workflow returns.
	uri, _ := saveCtx.Get(cor.CtxIn).(string)
	return uri, nil
}

// dataURI packages an image artifact the way the browser consumes it.
func dataURI(artifact *model.MediaArtifact) string {
	return fmt.Sprintf("data:%s;base64,%s", artifact.MIMEType, base64.StdEncoding.EncodeToString(artifact.Data))
}

// readImageUpload pulls the "image" form file from a multipart request
// and sniffs its content type from the bytes, not the filename.
func readImageUpload(c *gin.Context) *model.MediaArtifact {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	defer func() { _ = file.Close() }()

	data := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is not an image"})
		return nil
	}
	return &model.MediaArtifact{Data: data, MIMEType: kind.MIME.Value}
}

// writeMediaError maps client errors onto HTTP statuses: a missing
// credential is the caller's problem, a rejected one gets the stable
// credential message, and everything else is a server error.
func writeMediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, genmedia.ErrMissingCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case genmedia.CredentialRejected(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": genmedia.CredentialMessage})
	default:
		slog.ErrorContext(c.Request.Context(), "media operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// StudioRouter sets up the image studio endpoints:
//   - POST /images: Generates a still image from a prompt.
//   - POST /images/edit: Applies an instruction to an uploaded image.
//   - POST /images/animate: Animates an uploaded image into a clip.
func StudioRouter(r *gin.RouterGroup) {
	images := r.Group("/images")
	{
		images.POST("", func(c *gin.Context) {
			var body struct {
				Prompt      string `json:"prompt" binding:"required"`
				AspectRatio string `json:"aspect_ratio"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			img, err := state.cloud.GenMedia.GenerateImage(c.Request.Context(), body.Prompt, body.AspectRatio)
			if err != nil {
				writeMediaError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data_uri": dataURI(img)})
		})

		images.POST("/edit", func(c *gin.Context) {
			image := readImageUpload(c)
			if image == nil {
				return
			}
			prompt := c.PostForm("prompt")
			if prompt == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
				return
			}
			edited, err := state.cloud.GenMedia.EditImage(c.Request.Context(), prompt, image)
			if err != nil {
				writeMediaError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data_uri": dataURI(edited)})
		})

		images.POST("/animate", func(c *gin.Context) {
			image := readImageUpload(c)
			if image == nil {
				return
			}
			aspectRatio := c.DefaultPostForm("aspect_ratio", "16:9")
			clip, err := state.cloud.GenMedia.AnimateImage(
				c.Request.Context(), c.PostForm("prompt"), image, aspectRatio, nil)
			if err != nil {
				writeMediaError(c, err)
				return
			}
			c.Data(http.StatusOK, clip.MIMEType, clip.Data)
		})
	}
}

// SearchRouter sets up the grounded search endpoint.
//   - GET /search?q=<query>: Answers with web grounding and citations.
func SearchRouter(r *gin.RouterGroup) {
	r.GET("/search", func(c *gin.Context) {
		query := c.Query("q")
		if len(query) == 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		result, err := state.cloud.GenMedia.GroundedSearch(c.Request.Context(), query)
		if err != nil {
			writeMediaError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

// LibraryRouter sets up the artifact library endpoints:
//   - GET /library: Lists the newest saved artifacts.
//   - GET /library/:id/stream: Mints a signed streaming URL for one.
func LibraryRouter(r *gin.RouterGroup) {
	library := r.Group("/library")
	{
		library.GET("", func(c *gin.Context) {
			if runID := c.Query("run_id"); runID != "" {
				entries, err := state.libraryService.FindByRun(c.Request.Context(), runID)
				if err != nil {
					log.Printf("Error listing library for run %s: %v\n", runID, err)
					c.Status(http.StatusInternalServerError)
					return
				}
				c.JSON(http.StatusOK, entries)
				return
			}
			limit, err := strconv.Atoi(c.DefaultQuery("count", "50"))
			if err != nil {
				limit = 50
			}
			entries, err := state.libraryService.List(c.Request.Context(), limit)
			if err != nil {
				log.Printf("Error listing library: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, entries)
		})

		library.GET("/:id/stream", func(c *gin.Context) {
			entry, err := state.libraryService.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "library entry not found"})
				return
			}
			signedURL, err := state.libraryService.GenerateSignedURL(c.Request.Context(), entry.GCSURI, 15*time.Minute)
			if err != nil {
				log.Printf("Error generating signed URL: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// CatalogRouter exposes the static selection catalogs the front-end
// renders as pickers.
func CatalogRouter(r *gin.RouterGroup) {
	r.GET("/catalogs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"aspect_ratios": model.AspectRatios,
			"voices":        model.DefaultVoices,
			"templates":     model.DefaultTemplates,
			"pacing":        model.DefaultPacingOptions,
		})
	})
}

// UploadRouter sets up the still-image upload endpoint. Uploaded stills
// land in the upload bucket so the studio can reference them later.
func UploadRouter(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.UploadBucket)

			for _, file := range files {
				f, err := file.Open()
				if err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}
				content := make([]byte, file.Size)
				if _, err := io.ReadFull(f, content); err != nil {
					_ = f.Close()
					c.Status(http.StatusInternalServerError)
					return
				}
				_ = f.Close()

				wc := bucket.Object(file.Filename).NewWriter(c)
				if kind, err := filetype.Match(content); err == nil {
					wc.ContentType = kind.MIME.Value
				}
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}
