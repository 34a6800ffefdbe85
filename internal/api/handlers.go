package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
	"github.com/ppiankov/pricecmp/internal/shoplist"
	"github.com/ppiankov/pricecmp/internal/validate"
)

const (
	minAmount   = 0.000001
	maxAmount   = 1e9
	maxDecimals = 6
)

// form returns the named form values, failing if any is absent
func form(c *gin.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok := c.GetPostForm(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, NewMissingParamError(missing...)
	}
	return values, nil
}

func parseID(field, s string) (int, error) {
	n, err := validate.Integer(s, 0, math.MaxInt32)
	if err != nil {
		return 0, paramError(field, err)
	}
	return int(n), nil
}

func respondOK(c *gin.Context, extra gin.H) {
	body := gin.H{"status": "ok"}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleDBFiles(c *gin.Context) {
	names, err := s.store.List(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	files := make([]gin.H, len(names))
	for i, name := range names {
		files[i] = gin.H{"name": name}
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) handleDBGet(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		s.handleError(c, NewMissingParamError("name"))
		return
	}
	cat, err := s.store.Load(c.Request.Context(), name)
	if err != nil {
		s.handleError(c, err)
		return
	}
	entries := make([]entryView, len(cat.Records))
	for i, rec := range cat.Records {
		entries[i] = newEntryView(rec)
	}
	c.JSON(http.StatusOK, gin.H{"name": cat.Name, "entries": entries})
}

func (s *Server) handleDBCreate(c *gin.Context) {
	params, err := form(c, "name")
	if err != nil {
		s.handleError(c, err)
		return
	}
	if err := s.store.Create(c.Request.Context(), params["name"]); err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, gin.H{"name": params["name"]})
}

// recordFromForm validates the entry fields shared by add and update
func (s *Server) recordFromForm(params map[string]string) (model.PriceRecord, error) {
	if err := s.validator.Text("artikel", params["artikel"]); err != nil {
		return model.PriceRecord{}, err
	}
	if err := s.validator.Text("anbieter", params["anbieter"]); err != nil {
		return model.PriceRecord{}, err
	}
	if err := s.validator.Text("mengeEinheit", params["mengeEinheit"]); err != nil {
		return model.PriceRecord{}, err
	}
	value, err := validate.Decimal(params["mengeWert"], minAmount, maxAmount, maxDecimals)
	if err != nil {
		return model.PriceRecord{}, paramError("mengeWert", err)
	}
	price, err := validate.Integer(params["preisCent"], 0, math.MaxInt32)
	if err != nil {
		return model.PriceRecord{}, paramError("preisCent", err)
	}
	value, unit, err := quantity.Canonical(value, params["mengeEinheit"])
	if err != nil {
		return model.PriceRecord{}, paramError("mengeEinheit", err)
	}
	return model.PriceRecord{
		Article:       params["artikel"],
		Provider:      params["anbieter"],
		PriceCents:    int(price),
		QuantityValue: value,
		QuantityUnit:  unit,
	}, nil
}

var entryParams = []string{"name", "artikel", "anbieter", "preisCent", "mengeWert", "mengeEinheit"}

func (s *Server) handleDBAdd(c *gin.Context) {
	params, err := form(c, entryParams...)
	if err != nil {
		s.handleError(c, err)
		return
	}
	rec, err := s.recordFromForm(params)
	if err != nil {
		s.handleError(c, err)
		return
	}

	var added model.PriceRecord
	err = s.editor.Edit(c.Request.Context(), params["name"], func(cat *catalog.Catalog) error {
		var addErr error
		added, addErr = cat.Add(rec)
		return addErr
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, gin.H{"id": added.ID})
}

func (s *Server) handleDBUpdate(c *gin.Context) {
	params, err := form(c, append(entryParams, "id")...)
	if err != nil {
		s.handleError(c, err)
		return
	}
	id, err := parseID("id", params["id"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	rec, err := s.recordFromForm(params)
	if err != nil {
		s.handleError(c, err)
		return
	}
	rec.ID = id

	err = s.editor.Edit(c.Request.Context(), params["name"], func(cat *catalog.Catalog) error {
		return cat.Update(rec)
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, gin.H{"id": id})
}

func (s *Server) handleDBDelete(c *gin.Context) {
	params, err := form(c, "name", "id")
	if err != nil {
		s.handleError(c, err)
		return
	}
	id, err := parseID("id", params["id"])
	if err != nil {
		s.handleError(c, err)
		return
	}

	err = s.editor.Edit(c.Request.Context(), params["name"], func(cat *catalog.Catalog) error {
		return cat.Delete(id)
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) handleListGet(c *gin.Context) {
	items, err := s.list.Load()
	if err != nil {
		s.handleError(c, err)
		return
	}
	views := make([]listItemView, len(items))
	for i, item := range items {
		views[i] = listItemView{Index: i, Article: item.Article, Provider: item.Provider, Text: shoplist.Build(item)}
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (s *Server) handleListDownload(c *gin.Context) {
	items, err := s.list.Load()
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="einkaufsliste.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(shoplist.Text(items)))
}

func (s *Server) listItemFromForm(c *gin.Context) (model.ListItem, error) {
	params, err := form(c, "artikel")
	if err != nil {
		return model.ListItem{}, err
	}
	provider := c.PostForm("anbieter")
	if err := s.validator.Text("artikel", params["artikel"]); err != nil {
		return model.ListItem{}, err
	}
	if err := s.validator.OptionalText("anbieter", provider); err != nil {
		return model.ListItem{}, err
	}
	return model.ListItem{Article: params["artikel"], Provider: provider}, nil
}

func (s *Server) handleListAdd(c *gin.Context) {
	item, err := s.listItemFromForm(c)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if err := s.list.Add(item); err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) handleListUpdate(c *gin.Context) {
	params, err := form(c, "index")
	if err != nil {
		s.handleError(c, err)
		return
	}
	index, err := parseID("index", params["index"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	item, err := s.listItemFromForm(c)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if err := s.list.Update(index, item); err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) handleListDelete(c *gin.Context) {
	params, err := form(c, "index")
	if err != nil {
		s.handleError(c, err)
		return
	}
	index, err := parseID("index", params["index"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	if err := s.list.Delete(index); err != nil {
		s.handleError(c, err)
		return
	}
	respondOK(c, nil)
}
