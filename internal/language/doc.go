// Package language normalizes the LanguageISO values written to ComicInfo
// documents.
//
// A small table maps common ISO 639-2 codes and English words ("eng",
// "french") to their two-letter form; everything else goes through BCP 47
// parsing from golang.org/x/text/language so regional tags such as "pt-BR"
// survive with canonical casing.
package language
