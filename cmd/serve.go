package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pantry HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newMux(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newMux builds the API routes over an initialized environment.
func newMux(env *appEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/acquire", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string   `json:"name"`
			Cost     float64  `json:"cost"`
			Sugar    *float64 `json:"sugar"`
			Category string   `json:"category"`
			Save     *bool    `json:"save"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cand := model.CandidateItem{
			Name:     req.Name,
			Cost:     req.Cost,
			Category: model.ParseCategory(req.Category),
		}
		if req.Sugar != nil {
			cand.Sugar = model.Grams(*req.Sugar)
		}

		out := env.Acquisition.Submit(r.Context(), cand)

		save := req.Save == nil || *req.Save
		if out.Kind == model.OutcomeAccepted && save {
			item, err := model.FoodItemFromCandidate(out.Item, env.Owner)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if _, err := env.Store.CreateItem(r.Context(), item); err != nil {
				zap.L().Error("acquire: save failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save failed")
				return
			}
		}

		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		items, err := env.Store.ListItems(r.Context(), store.ItemFilter{
			Owner:    env.Owner,
			Query:    q.Get("query"),
			Category: model.Category(q.Get("category")),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			zap.L().Error("list items failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if items == nil {
			items = []model.FoodItem{}
		}
		writeJSON(w, http.StatusOK, items)
	})

	mux.HandleFunc("POST /api/items", func(w http.ResponseWriter, r *http.Request) {
		var item model.FoodItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if item.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		item.Owner = env.Owner

		saved, err := env.Store.CreateItem(r.Context(), &item)
		if err != nil {
			zap.L().Error("create item failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	})

	mux.HandleFunc("PATCH /api/items/{id}/quantity", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := r.PathValue("id")
		if err := env.Store.UpdateQuantity(r.Context(), id, env.Owner, req.Quantity); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	})

	mux.HandleFunc("DELETE /api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := env.Store.DeleteItem(r.Context(), id, env.Owner); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	})

	mux.HandleFunc("GET /api/totals", func(w http.ResponseWriter, r *http.Request) {
		totals, err := env.Store.Totals(r.Context(), env.Owner)
		if err != nil {
			zap.L().Error("totals failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "totals failed")
			return
		}
		writeJSON(w, http.StatusOK, totals)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
