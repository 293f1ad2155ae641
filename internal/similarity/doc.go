// Package similarity scores how close two names are.
//
// Similarity uses the Sørensen-Dice coefficient over character bigrams:
//
//	similarity.Similarity("zaika", "zraika") // 2/3
//	similarity.Similarity("romane", "romane") // 1
//
// Scores are symmetric and bounded to [0, 1]. Only identical inputs score 1.
// Inputs shorter than two characters score 0 unless they are identical.
//
// Normalizers prepare names before scoring. The default lowercases; the fold
// mode also removes accents so "Élodie" and "elodie" compare equal.
package similarity
