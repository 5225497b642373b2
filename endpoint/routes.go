package endpoint

import (
	"github.com/ariebrainware/dental-ledger/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the operator API on r. writeGuards run in front of
// every write route.
func RegisterRoutes(r gin.IRouter, writeGuards ...gin.HandlerFunc) {
	r.GET("/service", ListServices)

	r.GET("/patient", ListPatients)
	r.GET("/patient/:id", GetPatientInfo)

	r.GET("/ledger", ListLedger)
	r.GET("/ledger/balance", GetLedgerBalance)
	r.GET("/ledger/:id", GetLedgerEntry)

	write := r.Group("/", append(writeGuards, middleware.RequireOperator())...)
	write.POST("/patient", CreatePatient)
	write.POST("/ledger/completed", CreateCompletedEntry)
	write.POST("/ledger/scheduled", CreateScheduledEntry)
	write.PATCH("/ledger/:id/attendance", UpdateAttendance)
}
