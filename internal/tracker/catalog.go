// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package tracker

// Catalog returns a fresh deep copy of the canonical category list.
//
// Item order within each category is load-bearing: the external increment
// path addresses index 0/1 as the default location's Day/Night pair, and
// saved state merges positionally. Append new items at the end of a category;
// never reorder or remove existing ones.
func Catalog() []Category {
	return []Category{
		{
			ID:    "pills",
			Name:  "Выдача таблеток",
			Icon:  "Pill",
			Color: "text-rose-400",
			Items: []CategoryItem{
				{Name: "Выдача таблетки в ELSH День", Points: 1},
				{Name: "Выдача таблетки в ELSH Ночь", Points: 2},
				{Name: "Выдача таблетки в Sandy Shores День", Points: 3},
				{Name: "Выдача таблетки в Sandy Shores Ночь", Points: 4},
				{Name: "Выдача таблетки в Paleto Bay День", Points: 3},
				{Name: "Выдача таблетки в Paleto Bay Ночь", Points: 4},
			},
		},
		{
			ID:    "vaccination",
			Name:  "Вакцинация",
			Icon:  "Syringe",
			Color: "text-cyan-400",
			Items: []CategoryItem{
				{Name: "Вакцинация в ELSH День", Points: 2},
				{Name: "Вакцинация в ELSH Ночь", Points: 3},
				{Name: "Вакцинация в Sandy Shores День", Points: 4},
				{Name: "Вакцинация в Sandy Shores Ночь", Points: 6},
				{Name: "Вакцинация в Paleto Bay День", Points: 4},
				{Name: "Вакцинация в Paleto Bay Ночь", Points: 6},
			},
		},
		{
			ID:    "certificates",
			Name:  "Мед. справки",
			Icon:  "FileText",
			Color: "text-amber-400",
			Items: []CategoryItem{
				{Name: "Выдача 1 мед. справки в ELSH День", Points: 3},
				{Name: "Выдача 1 мед. справки в ELSH Ночь", Points: 4},
				{Name: "Выдача 1 мед. справки в Sandy Shores День", Points: 5},
				{Name: "Выдача 1 мед. справки в Sandy Shores Ночь", Points: 6},
				{Name: "Выдача 1 мед. справки в Paleto Bay День", Points: 5},
				{Name: "Выдача 1 мед. справки в Paleto Bay Ночь", Points: 6},
			},
		},
		{
			ID:    "firstaid",
			Name:  "ПМП и вызовы",
			Icon:  "Ambulance",
			Color: "text-red-400",
			Items: []CategoryItem{
				{Name: "Оказание ПМП День", Points: 4},
				{Name: "Оказание ПМП Ночь", Points: 6},
				{Name: "ПМП с интерном День", Points: 1},
				{Name: "ПМП с интерном Ночь", Points: 1},
				{Name: "Отмена ПМП", Points: 1},
				{Name: "Выдача таблетка на выезде ПМП День", Points: 1},
				{Name: "Выдача таблетка на выезде ПМП Ночь", Points: 2},
				{Name: "Вакцинация на выезде ПМП День", Points: 3},
				{Name: "Вакцинация на выезде ПМП Ночь", Points: 5},
			},
		},
		{
			ID:    "patrols",
			Name:  "Дежурства (30 мин)",
			Icon:  "Clock",
			Color: "text-violet-400",
			Items: []CategoryItem{
				{Name: "ELSH День", Points: 5},
				{Name: "ELSH Ночь", Points: 8},
				{Name: "Сенди Шорс День", Points: 8},
				{Name: "Сенди Шорс Ночь", Points: 14},
				{Name: "Палето-Бей День", Points: 8},
				{Name: "Палето-Бей Ночь", Points: 14},
				{Name: "Дежурство ПМП День", Points: 5},
				{Name: "Дежурство ПМП Ночь", Points: 10},
			},
		},
		{
			ID:       "events",
			Name:     "Мероприятия",
			Icon:     "PartyPopper",
			Color:    "text-emerald-400",
			IsManual: true,
			Items: []CategoryItem{
				{Name: "СУММА ВСЕХ МП", Points: 1, IsRawPoints: true},
			},
		},
		{
			ID:    "highcommand",
			Name:  "Старший состав",
			Icon:  "ClipboardList",
			Color: "text-indigo-400",
			Items: []CategoryItem{
				{Name: "Проверка отчёта на повышение", Points: 25},
				{Name: "Проверка дежурства", Points: 10},
				{Name: "Подача госволны", Points: 15},
			},
		},
	}
}
