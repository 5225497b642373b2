package endpoint

import (
	"strconv"

	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
)

type patientListQuery struct {
	Limit   int
	Offset  int
	Keyword string
}

func parseQueryParams(c *gin.Context) patientListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return patientListQuery{
		Limit:   limit,
		Offset:  offset,
		Keyword: c.Query("keyword"),
	}
}

// ListPatients godoc
// @Summary      List all patients
// @Description  Get a paginated list of patients with optional keyword search
// @Tags         Patient
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for identifier, names or phone"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	query := parseQueryParams(c)

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, registry, _ := components(db)
	patients, total, err := registry.Search(c.Request.Context(), query.Keyword, query.Limit, query.Offset)
	if err != nil {
		respondLedgerError(c, "Failed to retrieve patients", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(patients), "patients": patients},
	})
}

// GetPatientInfo godoc
// @Summary      Get a patient
// @Tags         Patient
// @Produce      json
// @Param        id path string true "Patient identifier"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient found"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, registry, _ := components(db)
	patient, err := registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLedgerError(c, "Patient not found", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient found",
		Data: patient,
	})
}

type createPatientRequest struct {
	ledger.NameParts
	ledger.PatientDetails
}

// CreatePatient godoc
// @Summary      Register a patient
// @Description  The identifier is generated from the name and a random suffix
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createPatientRequest true "Patient data"
// @Success      201 {object} util.APIResponse{data=model.Patient} "Patient registered"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "No free identifier"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, registry, _ := components(db)
	patient, err := registry.Register(c.Request.Context(), req.NameParts, req.PatientDetails)
	if err != nil {
		respondLedgerError(c, "Failed to register patient", err)
		return
	}

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Patient registered",
		Data: patient,
	})
}
