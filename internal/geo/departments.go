package geo

// Departments indexes French departments by rough bounding rectangle.
// Rectangles overlap; lookups take the first match in this order.
var Departments = NewIndex(departmentTable)

func department(code, name string, minLat, maxLat, minLon, maxLon float64) Region {
	return Region{Code: code, Name: name, Bounds: Rect{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}}
}

var departmentTable = []Region{
	// Alps
	department("01", "Ain", 45.5, 46.5, 4.7, 5.9),
	department("04", "Alpes-de-Haute-Provence", 43.7, 44.7, 5.5, 7.0),
	department("05", "Hautes-Alpes", 44.2, 45.2, 5.5, 7.2),
	department("06", "Alpes-Maritimes", 43.5, 44.4, 6.6, 7.7),
	department("26", "Drôme", 44.1, 45.2, 4.7, 5.8),
	department("38", "Isère", 44.7, 45.9, 5.0, 6.9),
	department("73", "Savoie", 45.0, 45.8, 5.6, 7.2),
	department("74", "Haute-Savoie", 45.7, 46.4, 5.8, 7.0),

	// Pyrenees
	department("09", "Ariège", 42.5, 43.3, 0.7, 2.2),
	department("11", "Aude", 42.6, 43.5, 1.7, 3.2),
	department("31", "Haute-Garonne", 42.7, 43.9, 0.4, 1.9),
	department("64", "Pyrénées-Atlantiques", 42.8, 43.6, -1.8, 0.0),
	department("65", "Hautes-Pyrénées", 42.7, 43.6, -0.5, 0.6),
	department("66", "Pyrénées-Orientales", 42.3, 43.0, 1.7, 3.2),

	// Corsica
	department("2A", "Corse-du-Sud", 41.3, 42.4, 8.5, 9.4),
	department("2B", "Haute-Corse", 42.0, 43.0, 8.5, 9.6),

	// Other mountain departments; incomplete.
	department("07", "Ardèche", 44.3, 45.4, 3.9, 4.9),
	department("25", "Doubs", 46.6, 47.6, 5.8, 7.0),
	department("39", "Jura", 46.3, 47.3, 5.3, 6.2),
	department("48", "Lozère", 44.1, 44.9, 3.0, 4.0),
	department("63", "Puy-de-Dôme", 45.3, 46.2, 2.4, 3.9),
	department("68", "Haut-Rhin", 47.4, 48.3, 6.8, 7.6),
	department("88", "Vosges", 47.8, 48.5, 5.4, 7.2),
}
