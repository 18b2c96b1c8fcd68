package lexicon

// defaultSeeds is the built-in Iraqi and Arabic profanity seed list,
// including transliterations and spaced-out spelling variants. Additional
// seeds can be loaded from a wordlist directory, see LoadDir.
func defaultSeeds() []string {
	return []string{
		// Common Iraqi slurs/insults
		"حمار", "كلب", "عاهر", "زنية", "كواد",
		"منيوج",
		"خوات كحبة", "كس", "مأجور", "عميل",
		"طيزك", "طيز", "عاهرة", "زنا", "كحبه",
		"تلوزه", "تلوزة", "صرمك", "صرم",

		// Vulgar terms
		"عرص", "قحبة", "منييجه", "شرموطة",

		// Offensive regional terms
		"عير", "ايجت", "منيجة", "كسم", "كلخ",

		// Transliterated terms
		"kos", "kuss", "khara", "khara2",
		"manyak", "manak", "sharmota",

		// Spaced-out variants
		"ح م ا ر", "ك ل ب", "ع ا ه ر",
	}
}
