package domain

// DefaultVocabulary returns the words every new session starts with. All of
// them are A1.
func DefaultVocabulary() []VocabularyEntry {
	return []VocabularyEntry{
		{German: "der Hund", English: "dog", Article: ArticleDer, Category: "animals", Level: LevelA1},
		{German: "die Katze", English: "cat", Article: ArticleDie, Category: "animals", Level: LevelA1},
		{German: "das Haus", English: "house", Article: ArticleDas, Category: "places", Level: LevelA1},
		{German: "gehen", English: "to go", Article: ArticleNone, Category: "verbs", Level: LevelA1},
		{German: "essen", English: "to eat", Article: ArticleNone, Category: "verbs", Level: LevelA1},
	}
}
