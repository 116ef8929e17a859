package mcpserver

// CardFormatContract describes the card fields and update rules that LLM
// consumers should follow when creating or editing catalog cards.
const CardFormatContract = `# Card Format Contract

A card is one entry of the workout catalog. It is identified by the pair
(section, cardName); the same name may exist in several sections.

## Fields

| Field       | Type    | Notes                                                   |
|-------------|---------|---------------------------------------------------------|
| section     | string  | REQUIRED. One of exercise, nutrition, recovery, equipment. Immutable. |
| cardName    | string  | REQUIRED. Unique within its section. Immutable.         |
| icon        | string  | Optional icon identifier.                               |
| description | string  | Optional free text.                                     |
| sets        | integer | Exercise only. Non-negative.                            |
| reps        | integer | Exercise only. Non-negative.                            |
| equipment   | string  | Exercise only. Surrounding whitespace is trimmed.       |
| targets     | string  | Exercise only. Muscle groups, comma separated.          |

## Updating

- ` + "`update_card`" + ` changes only the fields you pass. Omitted fields keep their values.
- sets and reps must be whole non-negative numbers; strings or fractions are ignored.
- equipment and targets must be strings; other types are ignored.
- section and cardName cannot be changed. Delete and recreate the card instead.
- The tool returns the full card as stored after the update.

## Example

` + "```" + `json
{"section": "exercise", "cardName": "Bench Press", "icon": "bench",
 "description": "Flat barbell press", "sets": 3, "reps": 10,
 "equipment": "barbell", "targets": "chest, triceps"}
` + "```" + `
`
