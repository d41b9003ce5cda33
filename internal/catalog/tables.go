package catalog

import "retailsynth/pkg/domain"

type categoryProfile struct {
	subcategories []string
	brands        []string
	// variants replace the "Premium" name suffix when present.
	variants []string
	priceMin float64
	priceMax float64
}

var categoryProfiles = map[domain.Category]categoryProfile{
	domain.CategoryLacteos: {
		subcategories: []string{"Leche", "Yogurt", "Quesos", "Mantequilla", "Crema"},
		brands:        []string{"Lala", "Alpura", "Santa Clara", "Nestle", "Danone"},
		variants:      []string{"Natural", "Light", "Deslactosada", "Entera"},
		priceMin:      15,
		priceMax:      45,
	},
	domain.CategoryBebidas: {
		subcategories: []string{"Refrescos", "Jugos", "Agua", "Bebidas Energeticas", "Cafe"},
		brands:        []string{"Coca-Cola", "Pepsi", "Jumex", "Del Valle", "Boing"},
		variants:      []string{"600ml", "355ml", "1L", "2L"},
		priceMin:      8,
		priceMax:      35,
	},
	domain.CategorySnacks: {
		subcategories: []string{"Papas", "Galletas", "Dulces", "Chocolates", "Frutos Secos"},
		brands:        []string{"Sabritas", "Barcel", "Gamesa", "Marinela", "Ricolino"},
		variants:      []string{"Original", "Picante", "Familiar", "Individual"},
		priceMin:      5,
		priceMax:      25,
	},
	domain.CategoryPan: {
		subcategories: []string{"Pan Dulce", "Pan Salado", "Tortillas", "Pasteles", "Bolleria"},
		brands:        []string{"Bimbo", "Wonder", "Tia Rosa", "Oroweat", "Artesanal"},
		priceMin:      3,
		priceMax:      20,
	},
	domain.CategoryVerduras: {
		subcategories: []string{"Verduras Frescas", "Verduras Congeladas", "Ensaladas", "Hierbas"},
		brands:        []string{"Del Monte", "Green Giant", "Local", "Organico", "Fresh"},
		priceMin:      10,
		priceMax:      40,
	},
	domain.CategoryHigiene: {
		subcategories: []string{"Cuidado Personal", "Limpieza Hogar", "Cuidado Bebe", "Farmacia"},
		brands:        []string{"P&G", "Unilever", "Colgate", "Johnson", "Nivea"},
		priceMin:      20,
		priceMax:      80,
	},
	domain.CategoryCarnes: {
		subcategories: []string{"Res", "Pollo", "Cerdo", "Pescado", "Embutidos"},
		brands:        []string{"Pilgrims", "Bachoco", "Sukarne", "San Rafael", "Local"},
		priceMin:      50,
		priceMax:      200,
	},
	domain.CategoryAbarrotes: {
		subcategories: []string{"Enlatados", "Granos", "Aceites", "Condimentos", "Pasta"},
		brands:        []string{"La Costena", "Herdez", "McCormick", "Knorr", "Maggi"},
		priceMin:      8,
		priceMax:      50,
	},
}

type areaRange struct{ min, max int }

var storeAreas = map[domain.Format]areaRange{
	domain.FormatHiper:       {2000, 5000},
	domain.FormatSuper:       {800, 2000},
	domain.FormatExpress:     {200, 800},
	domain.FormatConvenience: {50, 200},
}

var cities = []string{
	"Mexico DF", "Guadalajara", "Monterrey", "Puebla", "Tijuana",
	"Leon", "Juarez", "Torreon", "Queretaro", "San Luis Potosi",
	"Merida", "Aguascalientes", "Morelia", "Saltillo", "Hermosillo",
	"Mexicali", "Culiacan", "Acapulco", "Tlalnepantla", "Cancun",
}
