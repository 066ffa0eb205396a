package profanity

// SupplementalWords covers obfuscated spellings and campus slang not present
// in the base dictionary. Extended at deploy time via profanity.extra_words
// in the config file.
var SupplementalWords = []string{
	"sh1t",
	"fck",
	"fxck",
	"b1tch",
	"bullsh1t",
	"a55hole",
	"wtf",
	"stfu",
}
