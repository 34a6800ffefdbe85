package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/shoplist"
	"github.com/ppiankov/pricecmp/internal/validate"
)

func (s *Server) handleCompareSingle(c *gin.Context) {
	params, err := form(c, "name", "firstId", "secondId", "amount")
	if err != nil {
		s.handleError(c, err)
		return
	}
	firstID, err := parseID("firstId", params["firstId"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	secondID, err := parseID("secondId", params["secondId"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	amount, err := validate.Decimal(params["amount"], minAmount, maxAmount, maxDecimals)
	if err != nil {
		s.handleError(c, paramError("amount", err))
		return
	}

	cat, err := s.store.Load(c.Request.Context(), params["name"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	first, err := cat.Find(firstID)
	if err != nil {
		s.handleError(c, err)
		return
	}
	second, err := cat.Find(secondID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	res, err := s.aggregator.Compare(first, second)
	if err != nil {
		s.handleError(c, err)
		return
	}
	totalFirst, totalSecond := res.Totals(amount)

	c.JSON(http.StatusOK, compareView{
		Status:  "ok",
		Unit:    res.Unit(),
		Amount:  fixed(amount, 4),
		Cheaper: res.Winner,
		First:   newSideView(first, res.UnitPriceA, totalFirst),
		Second:  newSideView(second, res.UnitPriceB, totalSecond),
	})
}

// currentMatch is the record the item is planned against: the first record
// of the article from the item's provider, or of any provider if none is set.
func currentMatch(records []model.PriceRecord, item model.ListItem) *model.PriceRecord {
	for i := range records {
		if records[i].Article != item.Article {
			continue
		}
		if item.Provider == "" || records[i].Provider == item.Provider {
			return &records[i]
		}
	}
	return nil
}

func (s *Server) handleCompareList(c *gin.Context) {
	params, err := form(c, "name")
	if err != nil {
		s.handleError(c, err)
		return
	}
	apply, err := validate.Flag(c.PostForm("apply"))
	if err != nil {
		s.handleError(c, paramError("apply", err))
		return
	}

	cat, err := s.store.Load(c.Request.Context(), params["name"])
	if err != nil {
		s.handleError(c, err)
		return
	}
	items, err := s.list.Load()
	if err != nil {
		s.handleError(c, err)
		return
	}

	results := s.aggregator.Sweep(cat.Records, items)
	views := make([]sweepItemView, len(results))
	for i, res := range results {
		view := sweepItemView{
			Index:           i,
			Text:            shoplist.Build(res.Item),
			Article:         res.Item.Article,
			CurrentProvider: res.Item.Provider,
			Offers:          res.Offer.Matches,
			CurrentFound:    res.Err == nil && res.Offer.Current != nil,
		}
		if match := currentMatch(cat.Records, res.Item); match != nil {
			view.Match = newOfferView(*match)
		}
		if res.Err == nil {
			view.Recommendation = newOfferView(res.Offer.Record)
		}
		views[i] = view
	}

	updated := 0
	if apply {
		updated, err = s.list.Apply(results)
		if err != nil {
			s.handleError(c, err)
			return
		}
		s.log.WithFields(logging.Fields{"catalog": cat.Name, "updated": updated}).Info("applied recommendations")
	}

	respondOK(c, gin.H{"items": views, "updated": updated})
}
