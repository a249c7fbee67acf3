package ai

// ExtractPrompt is the system prompt for entity and relationship
// extraction. Format arguments: allowed entity types, source file name,
// allowed entity types (again, for the output rules).
const ExtractPrompt = `You are building a knowledge graph from a document.

Given a text passage, identify the entities it mentions and the directed
relationships between them.

Entity rules:
- Only use entity types from this list: %s
- The entity id is the canonical name of the entity, all letters capitalized.
- Give each entity a short description based only on the passage.

Relationship rules:
- source_id and target_id must be ids of entities you identified above.
- The relationship type is a short verb phrase in UPPER_SNAKE_CASE
  (for example WORKS_AT, LOCATED_IN, PART_OF).
- Describe why the two entities are related, based only on the passage.

The passage is taken from the file: %s

Respond with every entity of the types %s found in the passage and every
relationship between them. Do not invent entities or relationships that
the passage does not support.`
