package handlers

import "github.com/rogerio-castellano/catalog-gateway/internal/models"

type ProductsWithVariantsResponse struct {
	Success    bool                   `json:"success"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   *int                   `json:"pageSize,omitempty"`
	TotalPages int                    `json:"totalPages"`
	Products   []models.MergedProduct `json:"products"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
}
