package main

import "aeroparts/internal/models"

// Type aliases so handler code can use the unqualified names while the
// actual definitions live in internal/models.

type APIResponse = models.APIResponse
type Meta = models.Meta
type StockItem = models.StockItem
type PartGroup = models.PartGroup
type Inquiry = models.Inquiry
type StockMetrics = models.StockMetrics
