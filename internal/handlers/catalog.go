package handlers

import (
	"net/http"

	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

// ListPujas - GET /pujas
func (h *Handlers) ListPujas(c *gin.Context) {
	h.listPujas(c, false)
}

// ListPujasWithDetails - GET /pujas/details
// Пуджи вместе с изображениями, планами и чадавами
func (h *Handlers) ListPujasWithDetails(c *gin.Context) {
	h.listPujas(c, true)
}

func (h *Handlers) listPujas(c *gin.Context, withDetails bool) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	pujas, err := h.services.Catalog.ListPujas(c.Request.Context(), page, withDetails)
	if err != nil {
		handleServiceError(c, err, "list pujas")
		return
	}
	c.JSON(http.StatusOK, pujas)
}

// SearchPujas - GET /pujas/search?q=
func (h *Handlers) SearchPujas(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := h.services.Catalog.SearchPujas(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		handleServiceError(c, err, "search pujas")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPuja - GET /pujas/:id
func (h *Handlers) GetPuja(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	puja, err := h.services.Catalog.GetPuja(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get puja")
		return
	}
	c.JSON(http.StatusOK, puja)
}

// ListPujaChadawas - GET /pujas/:id/chadawas
func (h *Handlers) ListPujaChadawas(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	chadawas, err := h.services.Catalog.ListPujaChadawas(c.Request.Context(), id, page)
	if err != nil {
		handleServiceError(c, err, "list chadawas")
		return
	}
	c.JSON(http.StatusOK, chadawas)
}

// ListPujaPlans - GET /pujas/:id/plans
func (h *Handlers) ListPujaPlans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	plans, err := h.services.Catalog.ListPujaPlans(c.Request.Context(), id, page)
	if err != nil {
		handleServiceError(c, err, "list plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePuja - POST /admin/pujas
func (h *Handlers) CreatePuja(c *gin.Context) {
	var in models.PujaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	puja, err := h.services.Catalog.CreatePuja(c.Request.Context(), &in)
	if err != nil {
		handleServiceError(c, err, "create puja")
		return
	}
	c.JSON(http.StatusCreated, puja)
}

// UpdatePuja - PUT /admin/pujas/:id
func (h *Handlers) UpdatePuja(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.PujaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	puja, err := h.services.Catalog.UpdatePuja(c.Request.Context(), id, &in)
	if err != nil {
		handleServiceError(c, err, "update puja")
		return
	}
	c.JSON(http.StatusOK, puja)
}

// DeletePuja - DELETE /admin/pujas/:id
// Удаляет пуджу вместе с изображениями и связями
func (h *Handlers) DeletePuja(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Catalog.DeletePuja(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "delete puja")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddPujaImage - POST /admin/pujas/images
func (h *Handlers) AddPujaImage(c *gin.Context) {
	var in models.PujaImageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	image, err := h.services.Catalog.AddImage(c.Request.Context(), &in)
	if err != nil {
		handleServiceError(c, err, "add image")
		return
	}
	c.JSON(http.StatusCreated, image)
}

// DeletePujaImage - DELETE /admin/pujas/images/:image_id
func (h *Handlers) DeletePujaImage(c *gin.Context) {
	id, ok := pathID(c, "image_id")
	if !ok {
		return
	}

	if err := h.services.Catalog.DeleteImage(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "delete image")
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkPlan - POST /admin/pujas/:id/plans/:plan_id
func (h *Handlers) LinkPlan(c *gin.Context) {
	pujaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	planID, ok := pathID(c, "plan_id")
	if !ok {
		return
	}

	if err := h.services.Catalog.LinkPlan(c.Request.Context(), pujaID, planID); err != nil {
		handleServiceError(c, err, "add plan to puja")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Plan added to puja successfully"})
}

// UnlinkPlan - DELETE /admin/pujas/:id/plans/:plan_id
func (h *Handlers) UnlinkPlan(c *gin.Context) {
	pujaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	planID, ok := pathID(c, "plan_id")
	if !ok {
		return
	}

	if err := h.services.Catalog.UnlinkPlan(c.Request.Context(), pujaID, planID); err != nil {
		handleServiceError(c, err, "remove plan from puja")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPlans - GET /plans
func (h *Handlers) ListPlans(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	plans, err := h.services.Catalog.ListPlans(c.Request.Context(), page)
	if err != nil {
		handleServiceError(c, err, "list plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan - GET /plans/:id
func (h *Handlers) GetPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	plan, err := h.services.Catalog.GetPlan(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan - POST /admin/plans
func (h *Handlers) CreatePlan(c *gin.Context) {
	var in models.PlanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	plan, err := h.services.Catalog.CreatePlan(c.Request.Context(), &in)
	if err != nil {
		handleServiceError(c, err, "create plan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan - PUT /admin/plans/:id
func (h *Handlers) UpdatePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.PlanPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	plan, err := h.services.Catalog.UpdatePlan(c.Request.Context(), id, &patch)
	if err != nil {
		handleServiceError(c, err, "update plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan - DELETE /admin/plans/:id
func (h *Handlers) DeletePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Catalog.DeletePlan(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "delete plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListChadawas - GET /chadawas
func (h *Handlers) ListChadawas(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	chadawas, err := h.services.Catalog.ListChadawas(c.Request.Context(), page)
	if err != nil {
		handleServiceError(c, err, "list chadawas")
		return
	}
	c.JSON(http.StatusOK, chadawas)
}

// GetChadawa - GET /chadawas/:id
func (h *Handlers) GetChadawa(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	chadawa, err := h.services.Catalog.GetChadawa(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get chadawa")
		return
	}
	c.JSON(http.StatusOK, chadawa)
}

// CreateChadawa - POST /admin/chadawas
func (h *Handlers) CreateChadawa(c *gin.Context) {
	var in models.ChadawaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	chadawa, err := h.services.Catalog.CreateChadawa(c.Request.Context(), &in)
	if err != nil {
		handleServiceError(c, err, "create chadawa")
		return
	}
	c.JSON(http.StatusCreated, chadawa)
}

// UpdateChadawa - PUT /admin/chadawas/:id
func (h *Handlers) UpdateChadawa(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.ChadawaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	chadawa, err := h.services.Catalog.UpdateChadawa(c.Request.Context(), id, &patch)
	if err != nil {
		handleServiceError(c, err, "update chadawa")
		return
	}
	c.JSON(http.StatusOK, chadawa)
}

// DeleteChadawa - DELETE /admin/chadawas/:id
func (h *Handlers) DeleteChadawa(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Catalog.DeleteChadawa(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "delete chadawa")
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkChadawa - POST /admin/pujas/:id/chadawas/:chadawa_id
func (h *Handlers) LinkChadawa(c *gin.Context) {
	pujaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	chadawaID, ok := pathID(c, "chadawa_id")
	if !ok {
		return
	}

	if err := h.services.Catalog.LinkChadawa(c.Request.Context(), pujaID, chadawaID); err != nil {
		handleServiceError(c, err, "add chadawa to puja")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Chadawa added to puja successfully"})
}

// UnlinkChadawa - DELETE /admin/pujas/:id/chadawas/:chadawa_id
func (h *Handlers) UnlinkChadawa(c *gin.Context) {
	pujaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	chadawaID, ok := pathID(c, "chadawa_id")
	if !ok {
		return
	}

	if err := h.services.Catalog.UnlinkChadawa(c.Request.Context(), pujaID, chadawaID); err != nil {
		handleServiceError(c, err, "remove chadawa from puja")
		return
	}
	c.Status(http.StatusNoContent)
}
