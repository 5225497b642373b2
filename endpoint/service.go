package endpoint

import (
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
)

// ListServices godoc
// @Summary      List catalog services
// @Tags         Service
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Services retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /service [get]
func ListServices(c *gin.Context) {
	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	catalog, _, _ := components(db)
	services, err := catalog.List(c.Request.Context())
	if err != nil {
		respondLedgerError(c, "Failed to retrieve services", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Services retrieved",
		Data: map[string]interface{}{"total": len(services), "services": services},
	})
}
