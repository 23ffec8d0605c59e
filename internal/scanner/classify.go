package scanner

// classifyHiragana reports whether r is in the Hiragana block.
func classifyHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}

// classifyKatakana reports whether r is in the Katakana block or the
// Katakana Phonetic Extensions block, excluding ヶ, which is an
// iteration mark and classifies as Kanji.
func classifyKatakana(r rune) bool {
	if iterationMarks[r] {
		return false
	}
	return (r >= 0x30A0 && r <= 0x30FF) || (r >= 0x31F0 && r <= 0x31FF)
}

// iterationMarks are characters that classify as Kanji wherever they sit
// in Unicode: the kanji/kana iteration marks and the repeat-kanji
// placeholder 仝 (ヶ lies in the Katakana block, 仝 in the Unified
// Ideographs block).
var iterationMarks = map[rune]bool{
	'々': true,
	'〆': true,
	'〇': true,
	'ヶ': true,
	'仝': true,
}

// classifyKanji reports whether r is a CJK ideograph, one of its
// compatibility or extension blocks, or an iteration mark.
func classifyKanji(r rune) bool {
	if iterationMarks[r] {
		return true
	}
	switch {
	case r >= 0x3400 && r <= 0x4DBF: // Extension A
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // Unified Ideographs
		return true
	case r >= 0xF900 && r <= 0xFAFF: // Compatibility Ideographs
		return true
	case r >= 0x20000 && r <= 0x2FA1F: // Extensions B-F, Supplement, Compat Supplement
		return true
	default:
		return false
	}
}

// IsKanji reports whether r classifies as Kanji. Exported for
// collaborators (the linter's SuggestedRuby rule, the furigana advisor)
// that need to test individual characters outside of a Scan call.
func IsKanji(r rune) bool {
	return classifyKanji(r)
}

// IsHiragana reports whether r classifies as Hiragana.
func IsHiragana(r rune) bool {
	return classifyHiragana(r)
}

// IsKatakana reports whether r classifies as Katakana.
func IsKatakana(r rune) bool {
	return classifyKatakana(r)
}

// delimiters never extend an Other run. A delimiter that the dispatch
// loop does not handle itself (a lone ／, 》 or ［) can still start one.
func isDelimiter(r rune) bool {
	switch r {
	case '《', '》', '｜', '\n', '［', '／':
		return true
	default:
		return false
	}
}

// classifyOther reports whether r can extend an already-started Other
// run. The first rune of a run is accepted unconditionally by the
// dispatch loop; this only governs continuation.
func classifyOther(r rune) bool {
	if classifyHiragana(r) || classifyKatakana(r) || classifyKanji(r) {
		return false
	}
	return !isDelimiter(r)
}
