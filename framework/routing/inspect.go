package routing

import (
	"fmt"
	"log/slog"
	"net/http"

	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/injector"
	"github.com/km-arc/go-inject/framework/logging"
)

// keyView is the JSON shape of one key under /keys/{key}.
type keyView struct {
	Key      string     `json:"key"`
	Resolved bool       `json:"resolved"`
	Value    string     `json:"value"`
	Type     string     `json:"type"`
	Rules    []ruleView `json:"rules,omitempty"`
}

type ruleView struct {
	Identifier string `json:"identifier"`
	Producer   bool   `json:"producer"`
	Precedes   string `json:"precedes,omitempty"`
	Follows    string `json:"follows,omitempty"`
}

// Inspect mounts endpoints describing the injector:
//
//	GET  /keys        known keys
//	GET  /keys/{key}  resolve key and describe its rules, in stored order;
//	                  ?rules=false leaves the rules out
//	POST /keys/{key}  resolve key with the JSON body as overrides
func (r *Router) Inspect() {
	r.Get("/keys", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(r.inj.Keys())
	})

	r.Get("/keys/{key}", func(w http.ResponseWriter, req *http.Request) {
		r.describe(w, req, nil)
	})

	r.Post("/keys/{key}", func(w http.ResponseWriter, req *http.Request) {
		ov, err := gohttp.NewRequest(req).BindOverrides()
		if err != nil {
			gohttp.NewResponse(w).Error(http.StatusBadRequest, err.Error())
			return
		}
		r.describe(w, req, ov)
	})
}

// describe resolves the route's key and renders it in one operation.
func (r *Router) describe(w http.ResponseWriter, req *http.Request, ov injector.Overrides) {
	request, res := gohttp.NewRequest(req), gohttp.NewResponse(w)
	key := request.RouteParam("key")
	withRules := request.Query("rules", "true") != "false"

	var view keyView
	err := r.inj.Atomic(func(h *injector.Injector) error {
		v, err := h.Get(key, ov)
		if err != nil {
			return err
		}
		view = keyView{
			Key:      key,
			Resolved: h.Resolved(key),
			Value:    fmt.Sprintf("%v", v),
			Type:     fmt.Sprintf("%T", v),
		}
		if !withRules {
			return nil
		}
		view.Rules = []ruleView{}
		for _, rule := range h.Rules(key) {
			view.Rules = append(view.Rules, ruleView{
				Identifier: rule.Identifier(),
				Producer:   rule.Producer() != nil,
				Precedes:   rule.Placement().Precedes,
				Follows:    rule.Placement().Follows,
			})
		}
		return nil
	})
	if err != nil {
		logging.FromContext(req.Context()).Debug("inspect failed", slog.String("key", key), slog.Any("error", err))
		res.ResolveError(err)
		return
	}
	res.Success(view)
}
