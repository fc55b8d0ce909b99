package geo

// Massifs indexes the French Alps, Pyrenees and Corsica massifs by approximate center.
var Massifs = NewIndex(massifTable)

func massif(code, name string, lat, lon float64, numericID int) Region {
	return Region{Code: code, Name: name, Center: Point{Lat: lat, Lon: lon}, NumericID: numericID}
}

var massifTable = []Region{
	// Alps
	massif("CHABLAIS", "Chablais", 46.3, 6.7, 1),
	massif("ARAVIS", "Aravis", 45.9, 6.5, 2),
	massif("MONT-BLANC", "Mont-Blanc", 45.9, 6.9, 3),
	massif("BAUGES", "Bauges", 45.7, 6.2, 4),
	massif("BEAUFORTAIN", "Beaufortain", 45.7, 6.6, 5),
	massif("HAUTE-TARENTAISE", "Haute-Tarentaise", 45.5, 6.9, 6),
	massif("CHARTREUSE", "Chartreuse", 45.4, 5.8, 7),
	massif("BELLEDONNE", "Belledonne", 45.3, 6.0, 8),
	massif("MAURIENNE", "Maurienne", 45.2, 6.6, 9),
	massif("VANOISE", "Vanoise", 45.4, 6.8, 10),
	massif("HAUTE-MAURIENNE", "Haute-Maurienne", 45.2, 6.9, 11),
	massif("VERCORS", "Vercors", 45.0, 5.5, 14),
	massif("OISANS", "Oisans", 45.0, 6.3, 15),
	massif("GRANDES-ROUSSES", "Grandes-Rousses", 45.1, 6.1, 12),
	massif("THABOR", "Thabor", 45.1, 6.5, 13),
	massif("PELVOUX", "Pelvoux", 44.9, 6.4, 16),
	massif("QUEYRAS", "Queyras", 44.7, 6.8, 17),
	massif("DEVOLUY", "Dévoluy", 44.7, 5.9, 18),
	massif("CHAMPSAUR", "Champsaur", 44.7, 6.2, 19),
	massif("EMBRUNAIS-PARPAILLON", "Embrunais-Parpaillon", 44.5, 6.5, 20),
	massif("UBAYE", "Ubaye", 44.4, 6.7, 21),
	massif("MERCANTOUR", "Mercantour", 44.1, 7.4, 22),
	massif("ALPES-AZUR", "Alpes-Azur", 43.9, 7.2, 23),

	// Pyrenees
	massif("PAYS-BASQUE", "Pays-Basque", 43.0, -1.0, 40),
	massif("ASPE-OSSAU", "Aspe-Ossau", 42.9, -0.4, 41),
	massif("HAUTE-BIGORRE", "Haute-Bigorre", 42.8, 0.1, 42),
	massif("AURE-LOURON", "Aure-Louron", 42.8, 0.4, 43),
	massif("LUCHONNAIS", "Luchonnais", 42.8, 0.6, 44),
	massif("COUSERANS", "Couserans", 42.8, 1.0, 45),
	massif("HAUTE-ARIEGE", "Haute-Ariège", 42.6, 1.5, 46),
	massif("ORLU-ST-BARTHELEMY", "Orlu-St-Barthélémy", 42.6, 1.9, 47),
	massif("CAPCIR-PUYMORENS", "Capcir-Puymorens", 42.5, 2.0, 48),
	massif("CERDAGNE-CANIGOU", "Cerdagne-Canigou", 42.5, 2.3, 49),
	massif("ANDORRE", "Andorre", 42.6, 1.6, 50),
	massif("MONTAGNE-BASQUE", "Montagne-Basque", 43.0, -1.2, 0),
	massif("BEARN", "Béarn", 42.9, -0.5, 0),
	massif("BIGORRE", "Bigorre", 42.9, 0.0, 0),
	massif("COMMINGES", "Comminges", 42.8, 0.7, 0),
	massif("ARIEGE", "Ariège", 42.7, 1.3, 0),

	// Corsica
	massif("CORSE", "Corse", 42.2, 9.0, 70),
}
